// Package refreshtokens persists rotating refresh tokens.
package refreshtokens

import (
	"context"

	"github.com/plantfolk/plantkeeper/internal/server/models"
)

// Repository describes refresh token storage operations.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns a token or common.ErrNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	Delete(ctx context.Context, token string) error
}
