package cli

import (
	"fmt"
	"time"
)

// Run executes the prune command
func (c *PruneCmd) Run(ctx *Context) error {
	cutoff := time.Now().Add(-c.Keep)

	if c.DryRun {
		n, err := ctx.Store.CountBefore(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("would delete %d load(s) started before %s\n", n, cutoff.Format("2006-01-02 15:04:05"))
		return nil
	}

	n, err := ctx.Store.PruneBefore(cutoff)
	if err != nil {
		return err
	}
	if !ctx.Quiet {
		fmt.Printf("deleted %d load(s)\n", n)
	}
	return nil
}
