package cars

import (
	"context"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	GetByID(ctx context.Context, id string) (*models.Car, error)
	GetAll(ctx context.Context) ([]models.Car, error)
	// UpsertByPlate creates or updates a car keyed by (owner, license plate),
	// refreshing model and description.
	UpsertByPlate(ctx context.Context, car *models.Car) (*models.Car, error)
}
