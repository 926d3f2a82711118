// Package store provides storage for job applications.
// SQLiteStore keeps all records in a single "jobs" table of a local SQLite database
// in WAL mode, with every access serialized over one pooled connection.
// Dates are kept in ISO form (yyyy-mm-dd), so ordering by the stored column is
// calendar ordering; users see and type dates as dd-mm-yyyy.
package store
