package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// PaymentInput is a locally initiated payment. RepairRef accepts either a
// local repair id or the remote document id, mirroring what the payment
// terminal sends.
type PaymentInput struct {
	RepairRef     string
	Amount        float64
	PaymentMethod string
	TransactionID string
	PhoneNumber   string
	Provider      string
}

// PaymentService records local payments and serves payment history. Remote
// payment import lives in SyncService; this service handles the desk-side
// flow where the operator takes a payment directly.
type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	kickSync    func()
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PaymentService {
	return &PaymentService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "payments"),
	}
}

// SetSyncTrigger installs the hook fired after a recorded payment.
func (s *PaymentService) SetSyncTrigger(fn func()) {
	s.kickSync = fn
}

func (s *PaymentService) GetAll(ctx context.Context) ([]models.Payment, error) {
	return s.repomanager.Payments(s.db).GetAll(ctx)
}

// Create records a payment for a repair and marks the repair paid. The repair
// is resolved by local id first, then by remote document id.
func (s *PaymentService) Create(ctx context.Context, in *PaymentInput) (*models.Payment, error) {
	repair, err := s.resolveRepair(ctx, in.RepairRef)
	if err != nil {
		return nil, err
	}

	var payment *models.Payment

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		payRepo := s.repomanager.Payments(tx)

		payment, err = payRepo.Create(ctx, &models.Payment{
			RepairID:      repair.ID,
			Amount:        in.Amount,
			PaymentMethod: in.PaymentMethod,
			TransactionID: in.TransactionID,
			Status:        "completed",
		})
		if err != nil {
			return err
		}

		err = payRepo.CreateDetail(ctx, &models.PaymentDetail{
			PaymentID:   payment.ID,
			PhoneNumber: in.PhoneNumber,
			Provider:    in.Provider,
		})
		if err != nil {
			return err
		}

		return s.repomanager.Repairs(tx).SetStatus(ctx, repair.ID, models.StatusPaid)
	})
	if err != nil {
		return nil, err
	}

	if s.kickSync != nil {
		s.kickSync()
	}

	return payment, nil
}

func (s *PaymentService) resolveRepair(ctx context.Context, ref string) (*models.Repair, error) {
	repo := s.repomanager.Repairs(s.db)

	if _, err := uuid.Parse(ref); err == nil {
		repair, err := repo.GetByID(ctx, ref)
		if err == nil {
			return repair, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	repair, err := repo.GetByFirebaseID(ctx, ref)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: repair %s", common.ErrNotFound, ref)
		}
		return nil, err
	}
	return repair, nil
}
