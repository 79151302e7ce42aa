package cars

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

func (r *PostgresRepository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {

	query :=
		`INSERT INTO cars (user_id, license_plate, model, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		car.UserID, car.LicensePlate, car.Model, car.Description).Scan(&car.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return car, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Car, error) {
	query :=
		`SELECT id, user_id, license_plate, COALESCE(model, ''), COALESCE(description, '') FROM cars
		 WHERE id = $1
		 `

	car := &models.Car{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&car.ID, &car.UserID, &car.LicensePlate, &car.Model, &car.Description)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return car, nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Car, error) {
	query := `SELECT id, user_id, license_plate, COALESCE(model, ''), COALESCE(description, '') FROM cars ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Car
	for rows.Next() {
		var car models.Car
		if err := rows.Scan(&car.ID, &car.UserID, &car.LicensePlate, &car.Model, &car.Description); err != nil {
			return nil, err
		}
		result = append(result, car)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpsertByPlate(ctx context.Context, car *models.Car) (*models.Car, error) {
	query :=
		`INSERT INTO cars (user_id, license_plate, model, description)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, license_plate) DO UPDATE SET
		     model = excluded.model,
		     description = excluded.description
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		car.UserID, car.LicensePlate, car.Model, car.Description).Scan(&car.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return car, nil
}
