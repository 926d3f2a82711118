package cmd

import "fmt"

// ListCommand set of flags and command for list
type ListCommand struct {
	CommonOpts
}

// Execute is the entry point for "list" command
func (lc *ListCommand) Execute(_ []string) error {
	jobs, err := lc.Store.List(lc.Ctx)
	if err != nil {
		return fmt.Errorf("can't list jobs: %w", err)
	}
	return printJobs(lc.Out, jobs)
}
