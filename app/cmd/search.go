package cmd

import (
	"fmt"

	"github.com/umputun/jobsearch/app/store"
)

// SearchCommand set of flags and command for search
type SearchCommand struct {
	Title       string `short:"t" long:"title" description:"title contains, case-insensitive"`
	Description string `short:"d" long:"description" description:"description contains, case-insensitive"`
	Date        string `long:"date" description:"exact date, dd-mm-yyyy"`
	CommonOpts
}

// Execute is the entry point for "search" command. A malformed date is rejected here,
// the same way add does it, instead of being silently dropped from the filter.
func (sc *SearchCommand) Execute(_ []string) error {
	if sc.Date != "" {
		if _, err := store.ParseDate(sc.Date); err != nil {
			return err
		}
	}

	jobs, err := sc.Store.Search(sc.Ctx, store.Filter{Title: sc.Title, Description: sc.Description, Date: sc.Date})
	if err != nil {
		return fmt.Errorf("can't search jobs: %w", err)
	}
	return printJobs(sc.Out, jobs)
}
