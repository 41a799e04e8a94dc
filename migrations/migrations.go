// Package migrations embeds the goose SQL migrations so the binary can apply them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
