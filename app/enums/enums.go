// Package enums provides type-safe enumeration types shared by the CLI and the web interface.
//
// Enum types are declared here as unexported integer types and the go:generate directives
// invoke github.com/go-pkgz/enum to produce the exported types (*_enum.go) with String,
// Parse, MarshalText/UnmarshalText and Scan/Value methods.
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type format -lower

// format is a target format for exported jobs.
// Use the exported Format type and its constants in actual code.
type format int

const (
	formatJSON format = iota
	formatCSV
)
