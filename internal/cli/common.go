package cli

import (
	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/store"
)

// Context holds common dependencies for CLI commands
type Context struct {
	Store  *store.Store
	Config *config.Config
	Quiet  bool
}
