// Package export renders jobs as JSON or CSV documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/umputun/jobsearch/app/enums"
	"github.com/umputun/jobsearch/app/store"
)

// Header is the csv header row
var Header = []string{"id", "title", "description", "date"}

// ContentType returns mime type for the format
func ContentType(f enums.Format) string {
	switch f {
	case enums.FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// Write renders jobs in the given format to w
func Write(w io.Writer, f enums.Format, jobs []store.Job) error {
	switch f {
	case enums.FormatJSON:
		return writeJSON(w, jobs)
	case enums.FormatCSV:
		return writeCSV(w, jobs)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Bytes renders jobs in the given format
func Bytes(f enums.Format, jobs []store.Job) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, jobs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON makes an array with one object per line, like
//
//	[
//	{"id":1,"title":"...","description":"...","date":"01-03-2024"},
//	{"id":2,"title":"...","description":"...","date":"15-02-2024"}
//	]
func writeJSON(w io.Writer, jobs []store.Job) error {
	if _, err := io.WriteString(w, "[\n"); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	for i, job := range jobs {
		line, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job #%d: %w", job.ID, err)
		}
		if i < len(jobs)-1 {
			line = append(line, ',')
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
	}
	if _, err := io.WriteString(w, "]\n"); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, jobs []store.Job) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, job := range jobs {
		rec := []string{strconv.FormatInt(job.ID, 10), job.Title, job.Description, job.Date.String()}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row for job #%d: %w", job.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
