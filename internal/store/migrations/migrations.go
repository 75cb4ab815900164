// Package migrations embeds the goose migration files for the audit store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
