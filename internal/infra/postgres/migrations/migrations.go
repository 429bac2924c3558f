package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps applied by the migrate command and at startup.
var Migrations = migrate.NewMigrations()
