package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/plantfolk/plantkeeper/internal/client/migrations"
	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/dbx"
	"github.com/pressly/goose/v3"
)

// SQLitePersistence implements Persistence over a kv table in the client's
// local SQLite database.
type SQLitePersistence struct {
	db dbx.DBTX
}

func NewSQLitePersistence(db dbx.DBTX) *SQLitePersistence {
	return &SQLitePersistence{db: db}
}

func (p *SQLitePersistence) Get(ctx context.Context, key string) (string, error) {
	var value string
	row := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, nil
}

func (p *SQLitePersistence) Set(ctx context.Context, key string, value string) error {
	query := `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// RunMigrations applies the embedded client migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the client SQLite database at dsn, migrates it, and
// returns a ready Persistence. The sqlite driver must be imported by the
// binary (modernc.org/sqlite).
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *SQLitePersistence, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, NewSQLitePersistence(db), nil
}
