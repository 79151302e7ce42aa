// Package server initializes and runs the garagesync backend: it wires the
// database, the Firestore client and the services, starts the HTTP API, and
// drives the background sync ticker until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/logging"
	"github.com/tsiory-dev/garagesync/internal/server/config"
	"github.com/tsiory-dev/garagesync/internal/server/firestore"
	"github.com/tsiory-dev/garagesync/internal/server/httpapi"
	"github.com/tsiory-dev/garagesync/internal/server/repositories/repomanager"
	"github.com/tsiory-dev/garagesync/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	syncer  *services.SyncService
	handler *httpapi.Handler
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens := firestore.NewServiceAccountTokenSource(cfg.FirestoreKeyPath)
	remote := firestore.NewClient(cfg.FirestoreProjectID, tokens, cfg.RemoteCallTimeout)

	notifier := services.NewNotificationDispatcher(db, rm, remote, logger)
	syncer := services.NewSyncService(db, rm, remote, notifier, cfg, logger)

	repairSvc := services.NewRepairService(db, rm, logger)
	paymentSvc := services.NewPaymentService(db, rm, logger)
	carSvc := services.NewCarService(db, rm)
	interventionSvc := services.NewInterventionService(db, rm)
	statsSvc := services.NewStatsService(db, rm)

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
		syncer: syncer,
	}

	// status changes and payments kick an async sync so the remote store
	// converges promptly; a run already in flight is simply skipped
	repairSvc.SetSyncTrigger(app.triggerSync)
	paymentSvc.SetSyncTrigger(app.triggerSync)

	app.handler = httpapi.NewHandler(syncer, repairSvc, paymentSvc, carSvc, interventionSvc, statsSvc, logger)

	return app, nil
}

func (app *App) triggerSync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := app.syncer.Sync(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
			app.logger.Error(ctx, "background sync failed", "error", err)
		}
	}()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:         app.config.EndpointAddrHTTP,
		Handler:      app.handler.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSyncTicker(ctx context.Context) {
	if app.config.SyncInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.syncer.Sync(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
				app.logger.Error(ctx, "scheduled sync failed", "error", err)
			}
		}
	}
}

// RunSyncOnce performs a single synchronization run, used by the CLI.
func (app *App) RunSyncOnce(ctx context.Context) (*services.SyncSummary, error) {
	return app.syncer.Sync(ctx)
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSyncTicker(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
}
