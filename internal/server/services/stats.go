package services

import (
	"context"
	"database/sql"

	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/interventions"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalRevenue        float64                   `json:"total_revenue"`
	TotalRepairs        int                       `json:"total_repairs"`
	PendingRepairs      int                       `json:"pending_repairs"`
	TotalClients        int                       `json:"total_clients"`
	InterventionsByType []interventions.NameCount `json:"interventions_by_type"`
}

// StatsService aggregates the reporting numbers shown on the dashboard.
type StatsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewStatsService(db *sql.DB, m repomanager.RepositoryManager) *StatsService {
	return &StatsService{db: db, repomanager: m}
}

func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	repairRepo := s.repomanager.Repairs(s.db)

	revenue, err := repairRepo.SumTotalByStatus(ctx, models.StatusPaid)
	if err != nil {
		return nil, err
	}

	total, err := repairRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := repairRepo.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}

	clients, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := s.repomanager.Interventions(s.db).Usage(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalRevenue:        revenue,
		TotalRepairs:        total,
		PendingRepairs:      pending,
		TotalClients:        clients,
		InterventionsByType: usage,
	}, nil
}
