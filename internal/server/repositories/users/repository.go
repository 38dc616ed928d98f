// Package users persists mirror server accounts.
package users

import (
	"context"

	"github.com/plantfolk/plantkeeper/internal/server/models"
)

// Repository describes account storage operations.
type Repository interface {
	// Create inserts a new user and returns it with its generated id.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns a user or common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
