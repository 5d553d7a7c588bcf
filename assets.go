package assets

import "embed"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var MigrationsFS embed.FS
