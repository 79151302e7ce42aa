package payments

import (
	"context"
	"fmt"

	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {

	query :=
		`INSERT INTO payments (repair_id, firebase_id, amount, payment_method, transaction_id, status)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		payment.RepairID, payment.FirebaseID, payment.Amount,
		payment.PaymentMethod, payment.TransactionID, payment.Status).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return payment, nil
}

func (r *PostgresRepository) CreateDetail(ctx context.Context, detail *models.PaymentDetail) error {

	query :=
		`INSERT INTO payment_details (payment_id, card_number_masked, phone_number, provider)
		 VALUES ($1, NULLIF($2, ''), $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		detail.PaymentID, detail.CardNumberMasked, detail.PhoneNumber, detail.Provider).Scan(&detail.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Payment, error) {
	query :=
		`SELECT id, repair_id, COALESCE(firebase_id, ''), amount, payment_method, transaction_id, status, created_at
		 FROM payments
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.RepairID, &p.FirebaseID, &p.Amount,
			&p.PaymentMethod, &p.TransactionID, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ExistsByFirebaseID(ctx context.Context, firebaseID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE firebase_id = $1)`, firebaseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
