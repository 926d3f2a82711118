package cmd

import "fmt"

// RemoveCommand set of flags and command for remove
type RemoveCommand struct {
	Args struct {
		ID int64 `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes"`
	CommonOpts
}

// Execute is the entry point for "remove" command. Unknown id is not an error.
func (rc *RemoveCommand) Execute(_ []string) error {
	removed, err := rc.Store.Remove(rc.Ctx, rc.Args.ID)
	if err != nil {
		return fmt.Errorf("can't remove job: %w", err)
	}
	if !removed {
		fmt.Fprintf(rc.Out, "No job with id %d, nothing removed\n", rc.Args.ID)
		return nil
	}
	fmt.Fprintln(rc.Out, "Job removed successfully")
	return nil
}
