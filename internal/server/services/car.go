package services

import (
	"context"
	"database/sql"

	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// CarService is a thin resource controller over the cars repository.
type CarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCarService(db *sql.DB, m repomanager.RepositoryManager) *CarService {
	return &CarService{db: db, repomanager: m}
}

func (s *CarService) GetAll(ctx context.Context) ([]models.Car, error) {
	return s.repomanager.Cars(s.db).GetAll(ctx)
}

func (s *CarService) GetByID(ctx context.Context, id string) (*models.Car, error) {
	return s.repomanager.Cars(s.db).GetByID(ctx, id)
}

func (s *CarService) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, car.UserID); err != nil {
		return nil, err
	}
	return s.repomanager.Cars(s.db).Create(ctx, car)
}
