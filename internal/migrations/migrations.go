package migrations

import "embed"

// Files contains the journal's SQL migrations embedded into the binary.
//
// Files are applied in name order (001_init.sql, 002_...), and each starts
// with a comment line the migration runner tests match on.
//
//go:embed *.sql
var Files embed.FS
