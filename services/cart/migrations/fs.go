// Package migrations embeds the cart service database migrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
