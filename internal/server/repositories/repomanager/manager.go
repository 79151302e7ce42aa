package repomanager

import (
	"context"
	"database/sql"

	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/cars"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/interventions"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/payments"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repairs"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, which
// lets services run several repositories inside one transaction by passing
// the same tx handle to each.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Cars(db dbx.DBTX) cars.Repository
	Interventions(db dbx.DBTX) interventions.Repository
	Repairs(db dbx.DBTX) repairs.Repository
	Payments(db dbx.DBTX) payments.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
