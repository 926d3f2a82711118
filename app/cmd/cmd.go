// Package cmd has all top-level commands dispatched by main's flags.Parser. Each command
// gets the store and output writer from CommonOpts set by main before Execute is called.
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/umputun/go-flags"

	"github.com/umputun/jobsearch/app/store"
)

// Store defines job storage operations used by commands
type Store interface {
	Add(ctx context.Context, title, description string, date store.Date) (store.Job, error)
	List(ctx context.Context) ([]store.Job, error)
	Search(ctx context.Context, f store.Filter) ([]store.Job, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Clear(ctx context.Context) error
}

// Commander extends flags.Commander with SetCommon.
// All commands should implement this interface.
type Commander interface {
	flags.Commander
	SetCommon(commonOpts CommonOpts)
}

// CommonOpts sets externally from main, shared across all commands
type CommonOpts struct {
	Ctx   context.Context // canceled on SIGTERM/SIGINT, flags.Commander has no context argument
	Store Store
	Out   io.Writer
}

// SetCommon satisfies Commander interface
func (c *CommonOpts) SetCommon(commonOpts CommonOpts) {
	c.Ctx = commonOpts.Ctx
	c.Store = commonOpts.Store
	c.Out = commonOpts.Out
}

// printJobs renders jobs as an aligned table
func printJobs(w io.Writer, jobs []store.Job) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTitle\tDescription\tDate")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", j.ID, j.Title, j.Description, j.Date)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to print jobs: %w", err)
	}
	return nil
}
