package repairs

import (
	"context"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

// UpsertResult reports whether an upsert inserted a fresh row.
type UpsertResult struct {
	Repair  *models.Repair
	Created bool
}

type Repository interface {
	Create(ctx context.Context, repair *models.Repair) (*models.Repair, error)
	GetByID(ctx context.Context, id string) (*models.Repair, error)
	GetByFirebaseID(ctx context.Context, firebaseID string) (*models.Repair, error)
	GetAll(ctx context.Context) ([]models.Repair, error)
	// GetAllRemote lists repairs that carry a remote document id, in creation
	// order. These are the rows the push phase patches.
	GetAllRemote(ctx context.Context) ([]models.Repair, error)

	// UpsertByFirebaseID creates or updates a repair keyed by its remote
	// document id. CreatedAt is only honored on insert; car and status are
	// refreshed on every call.
	UpsertByFirebaseID(ctx context.Context, repair *models.Repair) (*UpsertResult, error)

	// Update persists the mutable fields of an existing repair.
	Update(ctx context.Context, repair *models.Repair) error
	SetTotalAmount(ctx context.Context, id string, amount float64) error
	SetNotified(ctx context.Context, id string, notified bool) error
	SetStatus(ctx context.Context, id string, status models.RepairStatus) error

	// LockAdmission takes the transaction-scoped lock serializing bay
	// admission. Row locks alone cannot serialize the check-then-assign:
	// a repair another transaction is concurrently moving into in_progress
	// is neither visible nor lockable. Must run inside a transaction; the
	// lock is released on commit or rollback.
	LockAdmission(ctx context.Context) error

	// GetInProgressForUpdate returns the repairs currently occupying a slot,
	// with the rows locked. Must run inside a transaction, after
	// LockAdmission.
	GetInProgressForUpdate(ctx context.Context) ([]models.Repair, error)

	CountByStatus(ctx context.Context, status models.RepairStatus) (int, error)
	Count(ctx context.Context) (int, error)
	SumTotalByStatus(ctx context.Context, status models.RepairStatus) (float64, error)

	UpsertItem(ctx context.Context, item *models.RepairItem) (*models.RepairItem, error)
	GetItems(ctx context.Context, repairID string) ([]models.RepairItem, error)
	SumItems(ctx context.Context, repairID string) (float64, error)
}
