package payments

import (
	"context"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	CreateDetail(ctx context.Context, detail *models.PaymentDetail) error
	GetAll(ctx context.Context) ([]models.Payment, error)
	// ExistsByFirebaseID reports whether a payment with the given remote
	// document id has already been imported. This is the reconciler's dedup.
	ExistsByFirebaseID(ctx context.Context, firebaseID string) (bool, error)
}
