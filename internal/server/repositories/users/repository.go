package users

import (
	"context"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpsertByEmail creates or updates a user keyed by email. The remote
	// identity is only overwritten when the incoming value is non-empty.
	UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error)
	Count(ctx context.Context) (int, error)
}
