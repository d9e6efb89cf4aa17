// Package migrations embeds the files cache's SQL schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
