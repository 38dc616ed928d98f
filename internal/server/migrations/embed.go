// Package migrations embeds the server-side Postgres schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
