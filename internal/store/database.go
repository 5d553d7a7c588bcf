package store

import (
	"database/sql"
	"fmt"
	"runtime"

	"github.com/haatos/gitbridge/internal/settings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// InitDatabase opens a handle for the configured driver. SQLite gets a
// read-only pool and a single-connection writer; Postgres handles both
// roles with one pool.
func InitDatabase(s *settings.AppSettings, readonly bool) (*sql.DB, error) {
	if s.DBDriver == settings.DriverPostgres {
		db, err := sql.Open("pgx", s.DSN(readonly))
		if err != nil {
			return nil, fmt.Errorf("err opening postgres database: %w", err)
		}
		db.SetMaxOpenConns(max(4, runtime.NumCPU()))
		return db, nil
	}

	db, err := sql.Open("sqlite", s.DSN(readonly))
	if err != nil {
		return nil, fmt.Errorf("err opening sqlite database: %w", err)
	}

	if readonly {
		db.SetMaxOpenConns(max(4, runtime.NumCPU()))
	} else {
		if _, err := db.Exec("PRAGMA temp_store=memory"); err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
	}

	return db, nil
}
