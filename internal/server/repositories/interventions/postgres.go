package interventions

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

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Intervention, error) {
	query := `SELECT id, name, price, duration FROM interventions ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Intervention
	for rows.Next() {
		var iv models.Intervention
		if err := rows.Scan(&iv.ID, &iv.Name, &iv.Price, &iv.Duration); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Intervention, error) {
	query := `SELECT id, name, price, duration FROM interventions WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Intervention, error) {
	query := `SELECT id, name, price, duration FROM interventions WHERE name = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	query :=
		`INSERT INTO interventions (name, price, duration)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, iv.Name, iv.Price, iv.Duration).Scan(&iv.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return iv, nil
}

func (r *PostgresRepository) Update(ctx context.Context, iv *models.Intervention) error {
	query := `UPDATE interventions SET name = $2, price = $3, duration = $4 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, iv.ID, iv.Name, iv.Price, iv.Duration)
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interventions WHERE id = $1`, id)
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

func (r *PostgresRepository) Usage(ctx context.Context) ([]NameCount, error) {
	query :=
		`SELECT i.name, COUNT(*) AS total
		 FROM repair_items ri
		 JOIN interventions i ON i.id = ri.intervention_id
		 GROUP BY i.name
		 ORDER BY total DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Total); err != nil {
			return nil, err
		}
		result = append(result, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Intervention, error) {
	iv := &models.Intervention{}
	err := row.Scan(&iv.ID, &iv.Name, &iv.Price, &iv.Duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return iv, nil
}
