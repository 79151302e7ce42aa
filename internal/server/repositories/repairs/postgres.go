package repairs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const repairColumns = `id, car_id, COALESCE(firebase_id, ''), status, slot_number,
	started_at, completed_at, total_amount, notified, created_at`

func (r *PostgresRepository) Create(ctx context.Context, repair *models.Repair) (*models.Repair, error) {

	query :=
		`INSERT INTO repairs (car_id, firebase_id, status, total_amount)
		 VALUES ($1, NULLIF($2, ''), $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		repair.CarID, repair.FirebaseID, repair.Status, repair.TotalAmount).Scan(&repair.ID, &repair.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return repair, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE id = $1`
	return scanRepair(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByFirebaseID(ctx context.Context, firebaseID string) (*models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE firebase_id = $1`
	return scanRepair(r.db.QueryRowContext(ctx, query, firebaseID))
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs ORDER BY created_at DESC`
	return r.selectRepairs(ctx, query)
}

func (r *PostgresRepository) GetAllRemote(ctx context.Context) ([]models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE firebase_id IS NOT NULL ORDER BY created_at`
	return r.selectRepairs(ctx, query)
}

func (r *PostgresRepository) UpsertByFirebaseID(ctx context.Context, repair *models.Repair) (*UpsertResult, error) {
	query :=
		`INSERT INTO repairs (car_id, firebase_id, status, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (firebase_id) DO UPDATE SET
		     car_id = excluded.car_id,
		     status = excluded.status
		 RETURNING id, total_amount, notified, created_at, (xmax = 0) AS inserted
		 `

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		repair.CarID, repair.FirebaseID, repair.Status, repair.CreatedAt).Scan(
		&repair.ID, &repair.TotalAmount, &repair.Notified, &repair.CreatedAt, &inserted)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &UpsertResult{Repair: repair, Created: inserted}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, repair *models.Repair) error {
	query :=
		`UPDATE repairs SET
		     status = $2,
		     slot_number = $3,
		     started_at = $4,
		     completed_at = $5,
		     total_amount = $6,
		     notified = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		repair.ID, repair.Status, repair.SlotNumber, repair.StartedAt,
		repair.CompletedAt, repair.TotalAmount, repair.Notified)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetTotalAmount(ctx context.Context, id string, amount float64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE repairs SET total_amount = $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetNotified(ctx context.Context, id string, notified bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE repairs SET notified = $2 WHERE id = $1`, id, notified)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.RepairStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE repairs SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// admissionLockID is the advisory lock key for bay admission. All admissions
// contend on this one key, which is fine for a two-bay shop.
const admissionLockID = 4271

func (r *PostgresRepository) LockAdmission(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, admissionLockID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetInProgressForUpdate(ctx context.Context) ([]models.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE status = 'in_progress' FOR UPDATE`
	return r.selectRepairs(ctx, query)
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status models.RepairStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repairs WHERE status = $1`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repairs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SumTotalByStatus(ctx context.Context, status models.RepairStatus) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM repairs WHERE status = $1`, status).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) UpsertItem(ctx context.Context, item *models.RepairItem) (*models.RepairItem, error) {
	query :=
		`INSERT INTO repair_items (repair_id, intervention_id, price, remaining_time)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (repair_id, intervention_id) DO UPDATE SET
		     price = excluded.price,
		     remaining_time = excluded.remaining_time
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.RepairID, item.InterventionID, item.Price, item.RemainingTime).Scan(&item.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) GetItems(ctx context.Context, repairID string) ([]models.RepairItem, error) {
	query :=
		`SELECT id, repair_id, intervention_id, price, remaining_time, status
		 FROM repair_items
		 WHERE repair_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, repairID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.RepairItem
	for rows.Next() {
		var item models.RepairItem
		if err := rows.Scan(&item.ID, &item.RepairID, &item.InterventionID,
			&item.Price, &item.RemainingTime, &item.Status); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SumItems(ctx context.Context, repairID string) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price), 0) FROM repair_items WHERE repair_id = $1`, repairID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepository) selectRepairs(ctx context.Context, query string, args ...any) ([]models.Repair, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Repair
	for rows.Next() {
		repair := models.Repair{}
		if err := rows.Scan(&repair.ID, &repair.CarID, &repair.FirebaseID, &repair.Status,
			&repair.SlotNumber, &repair.StartedAt, &repair.CompletedAt,
			&repair.TotalAmount, &repair.Notified, &repair.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, repair)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanRepair(row *sql.Row) (*models.Repair, error) {
	repair := &models.Repair{}
	err := row.Scan(&repair.ID, &repair.CarID, &repair.FirebaseID, &repair.Status,
		&repair.SlotNumber, &repair.StartedAt, &repair.CompletedAt,
		&repair.TotalAmount, &repair.Notified, &repair.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return repair, nil
}
