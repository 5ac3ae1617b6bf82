package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cogito/internal/common"
	"github.com/ternarybob/cogito/internal/interfaces"
	"github.com/ternarybob/cogito/internal/pipelines"
	"github.com/ternarybob/cogito/internal/storage/badger"
	"github.com/ternarybob/cogito/internal/workers"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Catalog *pipelines.Catalog
	Factory *pipelines.Factory
	Manager *workers.Manager

	// Snapshot persistence, nil unless snapshots are enabled. The canonical
	// index lifecycle is in-memory per worker; this is the opt-in boundary.
	DB              *badger.BadgerDB
	SnapshotStorage interfaces.IndexSnapshotStorage

	scheduler *cron.Cron
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	catalog, err := pipelines.LoadCatalog(cfg.Pipelines.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model catalog: %w", err)
	}
	app.Catalog = catalog

	app.Factory = pipelines.NewFactory(&cfg.Pipelines, catalog, logger)
	app.Manager = workers.NewManager(cfg, app.Factory, logger)

	logger.Info().
		Str("mode", cfg.Pipelines.Mode).
		Int("models", len(catalog.Pipelines)).
		Msg("Pipeline factory initialized")

	if cfg.Snapshot.Enabled {
		if err := app.initSnapshots(); err != nil {
			return nil, fmt.Errorf("failed to initialize snapshots: %w", err)
		}
	}

	return app, nil
}

// initSnapshots opens the snapshot database and starts the scheduled
// snapshot job.
func (a *App) initSnapshots() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.SnapshotStorage = badger.NewSnapshotStorage(db, a.Logger)

	a.scheduler = cron.New()
	_, err = a.scheduler.AddFunc(a.Config.Snapshot.Schedule, func() {
		a.Manager.SnapshotIndexes(context.Background(), a.SnapshotStorage, a.Config.Snapshot.ID)
	})
	if err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", a.Config.Snapshot.Schedule, err)
	}
	a.scheduler.Start()

	a.Logger.Info().
		Str("schedule", a.Config.Snapshot.Schedule).
		Str("snapshot_id", a.Config.Snapshot.ID).
		Msg("Scheduled index snapshots enabled")
	return nil
}

// Close shuts down all application components in dependency order.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	a.Manager.StopAll()

	if err := a.Factory.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Pipeline factory close failed")
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close snapshot database: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
