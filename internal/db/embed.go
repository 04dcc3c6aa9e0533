package db

import "embed"

// EmbedMigrations contains the goose migrations, one directory per dialect.
//
//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var EmbedMigrations embed.FS
