package cmd

import "fmt"

// ClearCommand set of flags and command for clear
type ClearCommand struct {
	CommonOpts
}

// Execute is the entry point for "clear" command, removes all jobs
func (cc *ClearCommand) Execute(_ []string) error {
	if err := cc.Store.Clear(cc.Ctx); err != nil {
		return fmt.Errorf("can't clear database: %w", err)
	}
	fmt.Fprintln(cc.Out, "Database cleared successfully")
	return nil
}
