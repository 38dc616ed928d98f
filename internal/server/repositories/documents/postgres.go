package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/dbx"
	"github.com/plantfolk/plantkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a DBTX, so batched commits
// can run the same code inside one transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID, kind, id string) (*models.Document, error) {
	query := `SELECT kind, id, user_id, body, updated_at FROM documents
		WHERE user_id = $1 AND kind = $2 AND id = $3`
	row := r.db.QueryRowContext(ctx, query, userID, kind, id)

	d := &models.Document{}
	if err := row.Scan(&d.Kind, &d.ID, &d.UserID, &d.Body, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID, kind, id string, body json.RawMessage) error {
	// JSONB || merges top-level fields, preserving stored fields the new
	// body does not mention.
	query := `INSERT INTO documents (user_id, kind, id, body, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, kind, id)
		DO UPDATE SET body = documents.body || excluded.body, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, userID, kind, id, []byte(body)); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, kind, id string) error {
	query := `DELETE FROM documents WHERE user_id = $1 AND kind = $2 AND id = $3`
	if _, err := r.db.ExecContext(ctx, query, userID, kind, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (r *PostgresRepository) QueryByField(ctx context.Context, userID, kind, field, value string) ([]models.Document, error) {
	query := `SELECT kind, id, user_id, body, updated_at FROM documents
		WHERE user_id = $1 AND kind = $2 AND body ->> $3 = $4`
	rows, err := r.db.QueryContext(ctx, query, userID, kind, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var result []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Kind, &d.ID, &d.UserID, &d.Body, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
