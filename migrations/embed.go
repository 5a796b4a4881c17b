// Package migrations compiles the SQL migration files into the binary so
// the daemon can bring a fresh bench database up to date without shipping
// loose .sql files alongside it.
package migrations

import (
	"embed"

	"github.com/calder-instruments/bench-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
