package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// RepairView is a repair order with its billed items, as served by the API.
type RepairView struct {
	models.Repair
	Items []models.RepairItem `json:"items"`
}

// RepairService manages repair orders. Setting a repair to in_progress goes
// through bay admission: at most models.SlotCount repairs may run at once and
// each holds a distinct slot. The admission check-then-assign runs inside one
// transaction with the in-progress rows locked, so concurrent requests
// serialize instead of colliding on a slot.
type RepairService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time

	// kickSync, when set, is fired after a successful local status change so
	// the remote store converges promptly. Remote failures never roll back
	// the local update.
	kickSync func()
}

func NewRepairService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *RepairService {
	return &RepairService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "repairs"),
		now:         time.Now,
	}
}

// SetSyncTrigger installs the hook fired after local status changes.
func (s *RepairService) SetSyncTrigger(fn func()) {
	s.kickSync = fn
}

func (s *RepairService) GetAll(ctx context.Context) ([]RepairView, error) {
	repo := s.repomanager.Repairs(s.db)

	repairsList, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]RepairView, 0, len(repairsList))
	for _, r := range repairsList {
		items, err := repo.GetItems(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, RepairView{Repair: r, Items: items})
	}
	return result, nil
}

func (s *RepairService) GetByID(ctx context.Context, id string) (*RepairView, error) {
	repo := s.repomanager.Repairs(s.db)

	repair, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := repo.GetItems(ctx, repair.ID)
	if err != nil {
		return nil, err
	}
	return &RepairView{Repair: *repair, Items: items}, nil
}

// Create opens a new pending repair for a car with one item per requested
// intervention, total computed from the catalog prices.
func (s *RepairService) Create(ctx context.Context, carID string, interventionIDs []string) (*RepairView, error) {
	var view *RepairView

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Cars(tx).GetByID(ctx, carID); err != nil {
			return fmt.Errorf("resolving car: %w", err)
		}

		repairRepo := s.repomanager.Repairs(tx)
		repair, err := repairRepo.Create(ctx, &models.Repair{
			CarID:  carID,
			Status: models.StatusPending,
		})
		if err != nil {
			return err
		}

		ivRepo := s.repomanager.Interventions(tx)
		total := 0.0
		var items []models.RepairItem
		for _, ivID := range interventionIDs {
			iv, err := ivRepo.GetByID(ctx, ivID)
			if err != nil {
				return fmt.Errorf("resolving intervention %s: %w", ivID, err)
			}
			item, err := repairRepo.UpsertItem(ctx, &models.RepairItem{
				RepairID:       repair.ID,
				InterventionID: iv.ID,
				Price:          iv.Price,
				RemainingTime:  iv.Duration,
			})
			if err != nil {
				return err
			}
			items = append(items, *item)
			total += iv.Price
		}

		if err := repairRepo.SetTotalAmount(ctx, repair.ID, total); err != nil {
			return err
		}
		repair.TotalAmount = total

		view = &RepairView{Repair: *repair, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// UpdateStatus transitions a repair and enforces bay admission on entry into
// in_progress: reject with ErrCapacityExceeded when both slots are held,
// otherwise assign the requested slot (ErrSlotOccupied if taken) or the
// lowest free one. started_at/completed_at are stamped on first entry only;
// notified resets whenever work is reopened.
func (s *RepairService) UpdateStatus(ctx context.Context, id string, status models.RepairStatus, slot *int) (*models.Repair, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrInternal, status)
	}

	var updated *models.Repair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Repairs(tx)

		repair, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if status == models.StatusInProgress && repair.Status != models.StatusInProgress {
			assigned, err := s.admit(ctx, tx, slot)
			if err != nil {
				return err
			}
			repair.SlotNumber = &assigned
			if repair.StartedAt == nil {
				t := s.now()
				repair.StartedAt = &t
			}
		}

		if status == models.StatusCompleted && repair.CompletedAt == nil {
			t := s.now()
			repair.CompletedAt = &t
		}

		if status == models.StatusPending || status == models.StatusInProgress {
			repair.Notified = false
		}

		repair.Status = status

		if err := repo.Update(ctx, repair); err != nil {
			return err
		}

		updated = repair
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.kickSync != nil {
		s.kickSync()
	}

	return updated, nil
}

// admit runs the capacity check and slot assignment. The advisory lock taken
// first covers the whole check-then-assign: FOR UPDATE row locks alone cannot
// exclude a repair that a concurrent transaction is just moving into
// in_progress. Must be called inside a transaction.
func (s *RepairService) admit(ctx context.Context, tx dbx.DBTX, requested *int) (int, error) {
	repo := s.repomanager.Repairs(tx)

	if err := repo.LockAdmission(ctx); err != nil {
		return 0, err
	}

	inProgress, err := repo.GetInProgressForUpdate(ctx)
	if err != nil {
		return 0, err
	}

	if len(inProgress) >= models.SlotCount {
		return 0, common.ErrCapacityExceeded
	}

	taken := make(map[int]bool, len(inProgress))
	for _, r := range inProgress {
		if r.SlotNumber != nil {
			taken[*r.SlotNumber] = true
		}
	}

	if requested != nil {
		if *requested < 1 || *requested > models.SlotCount {
			return 0, fmt.Errorf("%w: slot %d out of range", common.ErrInternal, *requested)
		}
		if taken[*requested] {
			return 0, common.ErrSlotOccupied
		}
		return *requested, nil
	}

	for slot := 1; slot <= models.SlotCount; slot++ {
		if !taken[slot] {
			return slot, nil
		}
	}
	return 0, common.ErrCapacityExceeded
}
