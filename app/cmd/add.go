package cmd

import (
	"fmt"

	"github.com/umputun/jobsearch/app/store"
)

// AddCommand set of flags and command for add
type AddCommand struct {
	Args struct {
		Title       string `positional-arg-name:"title" required:"yes"`
		Description string `positional-arg-name:"description" required:"yes"`
		Date        string `positional-arg-name:"date" description:"dd-mm-yyyy, today if omitted"`
	} `positional-args:"yes"`
	CommonOpts
}

// Execute is the entry point for "add" command. Malformed date is an error.
func (ac *AddCommand) Execute(_ []string) error {
	date := store.Today()
	if ac.Args.Date != "" {
		d, err := store.ParseDate(ac.Args.Date)
		if err != nil {
			return err
		}
		date = d
	}

	job, err := ac.Store.Add(ac.Ctx, ac.Args.Title, ac.Args.Description, date)
	if err != nil {
		return fmt.Errorf("can't add job: %w", err)
	}
	fmt.Fprintf(ac.Out, "Job added successfully, id %d\n", job.ID)
	return nil
}
