package interventions

import (
	"context"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

// NameCount is one row of the interventions-by-type statistic.
type NameCount struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

type Repository interface {
	GetAll(ctx context.Context) ([]models.Intervention, error)
	GetByID(ctx context.Context, id string) (*models.Intervention, error)
	GetByName(ctx context.Context, name string) (*models.Intervention, error)
	Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error)
	Update(ctx context.Context, iv *models.Intervention) error
	Delete(ctx context.Context, id string) error
	// Usage counts repair items grouped by intervention name.
	Usage(ctx context.Context) ([]NameCount, error)
}
