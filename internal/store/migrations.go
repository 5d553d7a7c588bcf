package store

import (
	"database/sql"
	"path"

	assets "github.com/haatos/gitbridge"
	"github.com/haatos/gitbridge/internal/settings"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded migrations for the given driver.
func RunMigrations(db *sql.DB, driver string) error {
	dialect, dir := "sqlite", "sqlite"
	if driver == settings.DriverPostgres {
		dialect, dir = "postgres", "postgres"
	}

	goose.SetBaseFS(assets.MigrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.Up(db, path.Join("migrations", dir))
}
