package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/perbu/sessmon/internal/cli"
	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	var flags cli.CLI
	kctx := kong.Parse(&flags,
		kong.Name("sessmon-cli"),
		kong.Description("Inspect and maintain the sessmon load audit store"),
		kong.Vars{"version": version},
	)

	// Load configuration
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override data dir if specified
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	// The sqlite backend keeps its database in the data directory
	if cfg.Store.Driver != "postgres" && cfg.DataDir == "" {
		return fmt.Errorf("data directory must be specified via --data-dir flag or config file")
	}

	if cfg.DataDir != "" {
		if err := cfg.EnsureDataDir(); err != nil {
			return err
		}
	}

	st, err := store.Open(cfg.Store.Driver, cfg.GetStoreDSN(), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	return kctx.Run(&cli.Context{
		Store:  st,
		Config: cfg,
		Quiet:  flags.Quiet,
	})
}
