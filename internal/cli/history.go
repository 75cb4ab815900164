package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/perbu/sessmon/internal/store"
)

// Run executes the history command
func (c *HistoryCmd) Run(ctx *Context) error {
	runs, err := ctx.Store.ListRuns(c.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if !ctx.Quiet {
			fmt.Println("No loads recorded")
		}
		return nil
	}

	switch c.Format {
	case "json":
		return outputJSON(os.Stdout, runs)
	case "table":
		return outputTable(os.Stdout, runs)
	default:
		return fmt.Errorf("unknown format: %s", c.Format)
	}
}

// Run executes the show command
func (c *ShowCmd) Run(ctx *Context) error {
	run, err := ctx.Store.GetRun(c.TaskID)
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		return outputJSON(os.Stdout, run)
	case "table":
		return outputTable(os.Stdout, []*store.TaskRun{run})
	default:
		return fmt.Errorf("unknown format: %s", c.Format)
	}
}

// outputTable renders runs as an aligned table
func outputTable(out io.Writer, runs []*store.TaskRun) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TASK\tKIND\tSTATE\tSTARTED\tDURATION\tITEMS\tERROR")

	for _, run := range runs {
		duration := "-"
		if run.FinishedAt.Valid {
			duration = run.Duration().Round(time.Millisecond).String()
		}

		items := "-"
		if run.ItemCount.Valid {
			items = fmt.Sprintf("%d", run.ItemCount.Int64)
		}

		errMsg := ""
		if run.Error.Valid {
			errMsg = run.Error.String
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.TaskID,
			run.Kind,
			run.State,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			duration,
			items,
			errMsg,
		)
	}

	return nil
}

// outputJSON encodes the value as indented JSON
func outputJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
