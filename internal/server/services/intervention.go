package services

import (
	"context"
	"database/sql"

	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// InterventionService manages the billable-work catalog. Price and duration
// changes never touch existing repair items, which keep their snapshot.
type InterventionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewInterventionService(db *sql.DB, m repomanager.RepositoryManager) *InterventionService {
	return &InterventionService{db: db, repomanager: m}
}

func (s *InterventionService) GetAll(ctx context.Context) ([]models.Intervention, error) {
	return s.repomanager.Interventions(s.db).GetAll(ctx)
}

func (s *InterventionService) Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	return s.repomanager.Interventions(s.db).Create(ctx, iv)
}

func (s *InterventionService) Update(ctx context.Context, iv *models.Intervention) error {
	return s.repomanager.Interventions(s.db).Update(ctx, iv)
}

func (s *InterventionService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Interventions(s.db).Delete(ctx, id)
}
