package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/firestore"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// NotificationDispatcher posts completion notifications to the remote store.
// Delivery is best effort: the caller flips the repair's notified flag only
// after a successful send, so a failed send is retried on the next sync cycle.
type NotificationDispatcher struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	remote      RemoteStore
	logger      logging.Logger
	now         func() time.Time
}

func NewNotificationDispatcher(db *sql.DB, m repomanager.RepositoryManager, remote RemoteStore, logger logging.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:          db,
		repomanager: m,
		remote:      remote,
		logger:      logger.With("module", "notifier"),
		now:         time.Now,
	}
}

// Dispatch posts a status-specific notification for the repair's owner.
// It returns true when a notification document was created. An owner without
// a remote identity cannot be notified; that is a silent skip, not an error.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, repair *models.Repair) (bool, error) {
	car, err := d.repomanager.Cars(d.db).GetByID(ctx, repair.CarID)
	if err != nil {
		return false, fmt.Errorf("resolving car: %w", err)
	}

	owner, err := d.repomanager.Users(d.db).GetByID(ctx, car.UserID)
	if err != nil {
		return false, fmt.Errorf("resolving owner: %w", err)
	}

	if owner.FirebaseUID == "" {
		d.logger.Debug(ctx, "owner has no remote identity, skipping notification",
			"repair", repair.ID, "user", owner.ID)
		return false, nil
	}

	message := fmt.Sprintf("Votre %s est prête !", car.Model)
	if repair.Status == models.StatusWaitingForPayment {
		message = fmt.Sprintf("Les travaux sur votre %s sont finis. En attente de règlement.", car.Model)
	}

	fields := map[string]firestore.Value{
		"userId":  firestore.String(owner.FirebaseUID),
		"title":   firestore.String("Réparation terminée"),
		"message": firestore.String(message),
		"carId":   firestore.String(repair.FirebaseID),
		"read":    firestore.Boolean(false),
		"date":    firestore.Timestamp(d.now()),
	}

	if _, err := d.remote.CreateDocument(ctx, "notifications", fields); err != nil {
		return false, err
	}

	return true, nil
}
