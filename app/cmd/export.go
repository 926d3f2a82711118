package cmd

import (
	"fmt"
	"os"

	"github.com/umputun/jobsearch/app/enums"
	"github.com/umputun/jobsearch/app/export"
)

// ExportCommand set of flags and command for export
type ExportCommand struct {
	File   string `long:"file" default:"jobs.json" description:"file to export jobs to"`
	Format string `long:"format" choice:"json" choice:"csv" default:"json" description:"format of the exported file"`
	CommonOpts
}

// Execute is the entry point for "export" command
func (ec *ExportCommand) Execute(_ []string) error {
	format, err := enums.ParseFormat(ec.Format)
	if err != nil {
		return err
	}

	jobs, err := ec.Store.List(ec.Ctx)
	if err != nil {
		return fmt.Errorf("can't load jobs: %w", err)
	}

	fh, err := os.Create(ec.File)
	if err != nil {
		return fmt.Errorf("can't create %s: %w", ec.File, err)
	}
	if err := export.Write(fh, format, jobs); err != nil {
		_ = fh.Close()
		return fmt.Errorf("can't export to %s: %w", ec.File, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", ec.File, err)
	}
	fmt.Fprintf(ec.Out, "Jobs exported successfully to %s\n", ec.File)
	return nil
}
