package cli

import (
	"time"

	"github.com/alecthomas/kong"
)

// CLI is the root command structure for kong
type CLI struct {
	Config  string           `short:"c" help:"Config file path" type:"path"`
	DataDir string           `short:"d" name:"data-dir" help:"Data directory" type:"path"`
	Quiet   bool             `short:"q" help:"Minimal output"`
	Version kong.VersionFlag `short:"V" help:"Show version"`

	History HistoryCmd `cmd:"" help:"List recorded background loads"`
	Show    ShowCmd    `cmd:"" help:"Show a single load by task id"`
	Prune   PruneCmd   `cmd:"" help:"Delete old load records"`
}

// HistoryCmd lists recorded loads
type HistoryCmd struct {
	Format string `help:"Output format" enum:"table,json" default:"table"`
	Limit  int    `short:"n" help:"Maximum number of loads to show" default:"50"`
}

// ShowCmd shows one load record
type ShowCmd struct {
	TaskID int64  `arg:"" name:"task-id" help:"Task id of the load"`
	Format string `help:"Output format" enum:"table,json" default:"table"`
}

// PruneCmd deletes load records older than the retention window
type PruneCmd struct {
	Keep   time.Duration `help:"Retention window" default:"168h"`
	DryRun bool          `name:"dry-run" help:"Report what would be deleted without deleting"`
}
