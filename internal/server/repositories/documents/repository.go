// Package documents persists mirrored records, one JSONB body per
// (user, kind, id).
package documents

import (
	"context"
	"encoding/json"

	"github.com/plantfolk/plantkeeper/internal/server/models"
)

// Repository describes document storage operations. Every operation is
// scoped to one owning user.
type Repository interface {
	// Get returns one document or common.ErrNotFound.
	Get(ctx context.Context, userID, kind, id string) (*models.Document, error)

	// Upsert writes a document with merge semantics: top-level fields in
	// body replace stored fields, fields absent from body are preserved.
	Upsert(ctx context.Context, userID, kind, id string, body json.RawMessage) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, userID, kind, id string) error

	// QueryByField returns the user's documents of kind whose body field
	// equals value.
	QueryByField(ctx context.Context, userID, kind, field, value string) ([]models.Document, error)
}
