package store

import (
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/voicecare-ai/voicecare/pkg/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the customers schema up to date using the embedded
// goose migrations.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return core.NewStoreError("open migration connection", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return core.NewStoreError("set migration dialect", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return core.NewStoreError("apply migrations", err)
	}
	return nil
}
