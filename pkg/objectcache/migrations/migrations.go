// Package migrations embeds the object cache's SQL schema migrations for
// use with golang-migrate's iofs source driver.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
