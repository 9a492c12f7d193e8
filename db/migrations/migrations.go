// Package migrations embeds the goose SQL migrations, one directory per dialect.
package migrations

import "embed"

// FS holds postgres/*.sql and mysql/*.sql.
//
//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS
