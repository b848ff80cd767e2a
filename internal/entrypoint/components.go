package entrypoint

import (
	"context"
	"fmt"
	"log"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/audit"
	"github.com/mrlokans/khelo/internal/config"
	"github.com/mrlokans/khelo/internal/crypto"
	"github.com/mrlokans/khelo/internal/database"
	"github.com/mrlokans/khelo/internal/database/analyses"
	auditrepo "github.com/mrlokans/khelo/internal/database/audit"
	"github.com/mrlokans/khelo/internal/database/records"
	"github.com/mrlokans/khelo/internal/metrics"
	syncrepo "github.com/mrlokans/khelo/internal/database/sync"
	"github.com/mrlokans/khelo/internal/queuestore"
	"github.com/mrlokans/khelo/internal/settingsstore"
	"github.com/mrlokans/khelo/internal/storage"
	"github.com/mrlokans/khelo/internal/syncengine"
	"github.com/mrlokans/khelo/internal/uploader"
)

// Components are the pieces shared by the server and the CLI commands.
type Components struct {
	DB       *database.Database
	Backend  storage.Backend
	Queue    *queuestore.Store
	Settings *settingsstore.SettingsStore
	Progress *syncrepo.Repository
	Analyses *analyses.Repository
	Audit    *audit.Service
	Uploader *uploader.Simulated
	Sealer   *crypto.ItemSealer
	Engine   *syncengine.Engine
	Analyzer *analysis.Analyzer

	// Both nil when metrics are disabled.
	Registry *prom.Registry
	Metrics  *metrics.Recorder
}

// BuildOptions tweaks Build for its caller.
type BuildOptions struct {
	// QuietSQL disables gorm's SQL warnings, for CLI output.
	QuietSQL bool
}

// Build opens the database and assembles the stores and the sync engine.
// The caller must Close the result.
func Build(cfg *config.Config, opts BuildOptions) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	open := database.NewDatabase
	if opts.QuietSQL {
		open = database.NewQuietDatabase
	}
	db, err := open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case config.StorageBackendFile:
		fileBackend, err := storage.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		log.Printf("Queue and settings stored as files in %s", cfg.Storage.Dir)
		backend = fileBackend
	default:
		var opts []records.Option
		if cfg.Database.Path != ":memory:" {
			opts = append(opts, records.WithLockFiles(cfg.Database.Path))
		}
		backend = records.NewRepository(db.DB, opts...)
	}

	enc, err := crypto.NewEncryptorFromSecret(cfg.Sync.EncryptionSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create payload encryptor: %w", err)
	}
	if cfg.Sync.EncryptionSecret == "" {
		log.Printf("SYNC_ENCRYPTION_SECRET is not set, using a random key for this process")
	}

	c := &Components{
		DB:       db,
		Backend:  backend,
		Queue:    queuestore.New(backend),
		Settings: settingsstore.New(backend),
		Progress: syncrepo.NewRepository(db.DB),
		Analyses: analyses.NewRepository(db.DB),
		Audit:    audit.NewService(auditrepo.NewRepository(db.DB)),
		Uploader: uploader.NewSimulated(uploader.Config{
			MinLatency:  cfg.Sync.UploadMinLatency,
			MaxLatency:  cfg.Sync.UploadMaxLatency,
			FailureRate: cfg.Sync.UploadFailureRate,
		}),
		Sealer: crypto.NewItemSealer(enc, cfg.Sync.EncryptLatency),
		Analyzer: analysis.NewAnalyzer(analysis.Config{
			MinDelay:         cfg.Analysis.MinDelay,
			MaxDelay:         cfg.Analysis.MaxDelay,
			DefaultAthleteID: cfg.Analysis.DefaultAthleteID,
		}),
	}

	if cfg.Metrics.Enabled {
		c.Registry = prom.NewRegistry()
		c.Metrics = metrics.NewRecorder(c.Registry)
		c.Queue.Subscribe(c.Metrics.ObserveQueue)
		if stats, err := c.Queue.Stats(context.Background()); err == nil {
			c.Metrics.ObserveQueue(stats)
		}
	}

	engineOpts := []syncengine.Option{
		syncengine.WithUploadTimeout(cfg.Sync.UploadTimeout),
		syncengine.WithEncryptTimeout(cfg.Sync.EncryptTimeout),
		syncengine.WithProgressReporter(c.Progress),
		syncengine.WithAuditLogger(c.Audit),
	}
	if c.Metrics != nil {
		engineOpts = append(engineOpts, syncengine.WithObserver(c.Metrics))
	}
	c.Engine = syncengine.New(c.Queue, c.Uploader, c.Sealer, engineOpts...)

	// Nothing can be draining yet, so a running record is left from a crash.
	if err := c.Progress.RecoverInterrupted(); err != nil {
		log.Printf("Failed to recover interrupted sync record: %v", err)
	}

	return c, nil
}

// Close waits for pending audit writes and closes the database.
func (c *Components) Close() error {
	c.Audit.Flush()
	return c.DB.Close()
}
