// Package engine implements the schema-migration and data-integrity engine
// for the capture store: cleanup of legacy inconsistencies, the locked
// all-or-nothing migration to the normalized schema, integrity verification,
// and rollback from snapshots. Every error leaving the engine boundary is
// sanitized.
package engine

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/backup"
	"github.com/voicevault/voicevault/internal/observability"
)

// Config configures an Engine.
type Config struct {
	BackupTablePrefix  string
	ProgressBufferSize int
	Logger             *slog.Logger
	Metrics            *observability.Metrics // nil disables metrics
}

// Engine is the façade over the migration executor, the cleanup
// scanner/repairer and the rollback controller. One Engine guards one
// database; the exclusive lock defends against overlapping invocations from
// the caller.
type Engine struct {
	db       *gorm.DB
	lock     *Lock
	state    *stateManager
	backups  *backup.Manager
	notifier *Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates an engine on an opened database.
func New(db *gorm.DB, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		db:       db,
		lock:     NewLock(),
		state:    newStateManager(db),
		backups:  backup.NewManager(db, cfg.BackupTablePrefix, logger),
		notifier: NewNotifier(cfg.ProgressBufferSize, logger),
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Progress returns the notifier for subscribing to phase-transition events.
func (e *Engine) Progress() *Notifier {
	return e.notifier
}

// Close force-clears progress tracking. Call once at process shutdown.
func (e *Engine) Close() {
	e.notifier.Shutdown()
}
