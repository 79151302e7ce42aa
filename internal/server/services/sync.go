// Package services contains the server-side business logic: the sync engine
// reconciling local state with the mobile app's Firestore project, the
// repair-bay admission controller, and the thin resource services behind the
// HTTP API.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/config"
	"github.com/tsiory-dev/garagesync/internal/server/firestore"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
)

// RemoteStore is the document-store surface the sync engine consumes.
// *firestore.Client implements it; tests substitute fakes.
type RemoteStore interface {
	GetCollection(ctx context.Context, collection string) ([]firestore.Document, error)
	PatchDocument(ctx context.Context, collection, id string, fieldMask []string, fields map[string]firestore.Value) error
	CreateDocument(ctx context.Context, collection string, fields map[string]firestore.Value) (string, error)
}

// SyncSummary aggregates the outcome of one sync run. Recoverable per-document
// failures end up in Skipped/Failed instead of aborting the run.
type SyncSummary struct {
	RepairsPushed    int `json:"repairs_pushed"`
	RepairsPulled    int `json:"repairs_pulled"`
	RepairsRefreshed int `json:"repairs_refreshed"`
	PaymentsImported int `json:"payments_imported"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
}

// SyncService reconciles local repair-shop state with the remote store.
//
// Phase order is load-bearing: local status, slot and amount are authoritative
// and must reach the remote store before remote-originated repairs and
// payments are imported back.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	remote      RemoteStore
	notifier    *NotificationDispatcher
	config      *config.Config
	logger      logging.Logger
	now         func() time.Time

	// running guards the whole Sync operation: a run triggered while another
	// is in flight is rejected, never interleaved.
	running sync.Mutex

	// placeholder credential assigned to users created as a sync side effect
	placeholderHash     string
	placeholderHashOnce sync.Once
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, remote RemoteStore,
	notifier *NotificationDispatcher, cfg *config.Config, logger logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		remote:      remote,
		notifier:    notifier,
		config:      cfg,
		logger:      logger.With("module", "sync"),
		now:         time.Now,
	}
}

// Sync runs the three phases in strict order: push statuses, pull repairs,
// pull payments. Only authentication and configuration failures abort the
// whole run; everything else is isolated per document and counted.
func (s *SyncService) Sync(ctx context.Context) (*SyncSummary, error) {
	if !s.running.TryLock() {
		return nil, common.ErrSyncInProgress
	}
	defer s.running.Unlock()

	summary := &SyncSummary{}

	if err := s.pushStatuses(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.pullRepairs(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.pullPayments(ctx, summary); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "sync finished",
		"pushed", summary.RepairsPushed,
		"pulled", summary.RepairsPulled,
		"refreshed", summary.RepairsRefreshed,
		"payments", summary.PaymentsImported,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	return summary, nil
}

// fatal reports whether err must abort the whole sync run.
func fatal(err error) bool {
	return errors.Is(err, common.ErrConfig) || errors.Is(err, common.ErrAuth)
}

// pushStatuses patches statut, slot_number and montant of every repair that
// has a remote document, then drives the notified flag: set after a delivered
// completion notification, cleared when work is reopened.
func (s *SyncService) pushStatuses(ctx context.Context, summary *SyncSummary) error {
	repo := s.repomanager.Repairs(s.db)

	remoteRepairs, err := repo.GetAllRemote(ctx)
	if err != nil {
		return err
	}

	for _, repair := range remoteRepairs {
		slot := 0
		if repair.SlotNumber != nil {
			slot = *repair.SlotNumber
		}

		fields := map[string]firestore.Value{
			"statut":      firestore.String(MapStatusToRemote(repair.Status)),
			"slot_number": firestore.Integer(int64(slot)),
			"montant":     firestore.Double(repair.TotalAmount),
		}

		err := s.remote.PatchDocument(ctx, "repairs", repair.FirebaseID,
			[]string{"statut", "slot_number", "montant"}, fields)
		if err != nil {
			if fatal(err) {
				return err
			}
			s.logger.Error(ctx, "push failed", "firebase_id", repair.FirebaseID, "error", err)
			summary.Failed++
			continue
		}
		summary.RepairsPushed++

		switch repair.Status {
		case models.StatusCompleted, models.StatusWaitingForPayment:
			if repair.Notified {
				break
			}
			sent, err := s.notifier.Dispatch(ctx, &repair)
			if err != nil {
				if fatal(err) {
					return err
				}
				// flag stays false so the next cycle retries
				s.logger.Error(ctx, "notification failed", "repair", repair.ID, "error", err)
				summary.Failed++
				break
			}
			if sent {
				if err := repo.SetNotified(ctx, repair.ID, true); err != nil {
					return err
				}
			}
		case models.StatusPending, models.StatusInProgress:
			if repair.Notified {
				if err := repo.SetNotified(ctx, repair.ID, false); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// pullRepairs imports remote repair documents: upsert user, car, repair and
// the matched catalog item. One bad document never aborts the batch.
func (s *SyncService) pullRepairs(ctx context.Context, summary *SyncSummary) error {
	docs, err := s.remote.GetCollection(ctx, "repairs")
	if err != nil {
		if fatal(err) {
			return err
		}
		s.logger.Error(ctx, "listing remote repairs failed", "error", err)
		summary.Failed++
		return nil
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		outcome, err := s.upsertRepairDoc(ctx, doc, catalog)
		if err != nil {
			s.logger.Error(ctx, "importing repair document failed", "firebase_id", doc.ID(), "error", err)
			summary.Failed++
			continue
		}
		switch outcome {
		case pullCreated:
			summary.RepairsPulled++
		case pullRefreshed:
			summary.RepairsRefreshed++
		default:
			summary.Skipped++
		}
	}

	return nil
}

// pullOutcome classifies what importing one repair document did locally.
type pullOutcome int

const (
	pullSkipped pullOutcome = iota
	pullCreated
	pullRefreshed
)

// loadCatalog snapshots the intervention catalog into a by-name lookup table
// for this run.
func (s *SyncService) loadCatalog(ctx context.Context) (map[string]models.Intervention, error) {
	all, err := s.repomanager.Interventions(s.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]models.Intervention, len(all))
	for _, iv := range all {
		catalog[iv.Name] = iv
	}
	return catalog, nil
}

func (s *SyncService) upsertRepairDoc(ctx context.Context, doc firestore.Document, catalog map[string]models.Intervention) (pullOutcome, error) {
	email := doc.Field("userEmail").AsString()
	if email == "" {
		s.logger.Warn(ctx, "repair document without owner email, skipping", "firebase_id", doc.ID())
		return pullSkipped, nil
	}

	name := doc.Field("userName").AsString()
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	createdAt, ok := doc.Field("createdAt").AsTime()
	if !ok {
		createdAt = s.now()
	}

	status := MapStatusFromRemote(doc.Field("statut").AsString())

	created := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).UpsertByEmail(ctx, &models.User{
			Email:        email,
			Name:         name,
			PasswordHash: s.placeholderCredential(),
			FirebaseUID:  doc.Field("userId").AsString(),
		})
		if err != nil {
			return err
		}

		car, err := s.repomanager.Cars(tx).UpsertByPlate(ctx, &models.Car{
			UserID:       user.ID,
			LicensePlate: doc.Field("immatriculation").AsString(),
			Model:        doc.Field("modele").AsString(),
			Description:  doc.Field("panne").AsString(),
		})
		if err != nil {
			return err
		}

		repairRepo := s.repomanager.Repairs(tx)
		res, err := repairRepo.UpsertByFirebaseID(ctx, &models.Repair{
			CarID:      car.ID,
			FirebaseID: doc.ID(),
			Status:     status,
			CreatedAt:  createdAt,
		})
		if err != nil {
			return err
		}
		created = res.Created

		// One synchronized item per remote repair: the document carries a
		// single "type" field, additional interventions are added locally.
		iv, ok := catalog[doc.Field("type").AsString()]
		if !ok {
			return nil
		}

		_, err = repairRepo.UpsertItem(ctx, &models.RepairItem{
			RepairID:       res.Repair.ID,
			InterventionID: iv.ID,
			Price:          iv.Price,
			RemainingTime:  iv.Duration,
		})
		if err != nil {
			return err
		}

		return repairRepo.SetTotalAmount(ctx, res.Repair.ID, iv.Price)
	})
	if err != nil {
		return pullSkipped, err
	}

	if created {
		return pullCreated, nil
	}
	return pullRefreshed, nil
}

// pullPayments imports remote payment documents, deduplicated by their
// document id, and couples the target repair's status: a payment event is
// taken as proof of completed work.
func (s *SyncService) pullPayments(ctx context.Context, summary *SyncSummary) error {
	docs, err := s.remote.GetCollection(ctx, "payments")
	if err != nil {
		if fatal(err) {
			return err
		}
		s.logger.Error(ctx, "listing remote payments failed", "error", err)
		summary.Failed++
		return nil
	}

	for _, doc := range docs {
		imported, err := s.importPaymentDoc(ctx, doc)
		if err != nil {
			s.logger.Error(ctx, "importing payment document failed", "firebase_id", doc.ID(), "error", err)
			summary.Failed++
			continue
		}
		if imported {
			summary.PaymentsImported++
		} else {
			summary.Skipped++
		}
	}

	return nil
}

func (s *SyncService) importPaymentDoc(ctx context.Context, doc firestore.Document) (bool, error) {
	exists, err := s.repomanager.Payments(s.db).ExistsByFirebaseID(ctx, doc.ID())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	repair, err := s.repomanager.Repairs(s.db).GetByFirebaseID(ctx, doc.Field("firestore_repair_id").AsString())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "payment references unknown repair, skipping",
				"firebase_id", doc.ID(), "firestore_repair_id", doc.Field("firestore_repair_id").AsString())
			return false, nil
		}
		return false, err
	}

	method := doc.Field("payment_method").AsString()
	if method == "" {
		method = s.config.DefaultPaymentMethod
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		payRepo := s.repomanager.Payments(tx)

		payment, err := payRepo.Create(ctx, &models.Payment{
			RepairID:      repair.ID,
			FirebaseID:    doc.ID(),
			Amount:        doc.Field("amount").AsFloat64(),
			PaymentMethod: method,
			TransactionID: doc.Field("transaction_id").AsString(),
			Status:        "completed",
		})
		if err != nil {
			return err
		}

		err = payRepo.CreateDetail(ctx, &models.PaymentDetail{
			PaymentID:   payment.ID,
			PhoneNumber: s.config.DefaultPaymentPhone,
			Provider:    s.config.DefaultPaymentProvider,
		})
		if err != nil {
			return err
		}

		if repair.Status == models.StatusPending || repair.Status == models.StatusInProgress {
			return s.repomanager.Repairs(tx).SetStatus(ctx, repair.ID, models.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}

// placeholderCredential returns the fixed bcrypt hash given to users created
// purely as a side effect of sync. They have no way to log in from this
// backend anyway; the real credential lives in the mobile app's auth system.
func (s *SyncService) placeholderCredential() string {
	s.placeholderHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("bcrypt: %v", err))
		}
		s.placeholderHash = string(hash)
	})
	return s.placeholderHash
}
