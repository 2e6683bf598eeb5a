// Package migrations embeds the SQL schema migrations for the relational
// backends. Goose applies them at startup.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
