package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"taggerd/internal/batch"
	"taggerd/internal/config"
	"taggerd/internal/gate"
	"taggerd/internal/history"
	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

// Daemon coordinates the inference services and enforces single-instance
// execution. The registry, gate, and queue manager are built here and
// passed by reference to the API server; nothing hangs off package-level
// state.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *tagger.Registry
	gate     *gate.Gate
	manager  *batch.Manager
	history  *history.Store

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	registry := tagger.NewRegistry(cfg, logger)
	inferenceGate := gate.New()

	var recorder batch.Recorder
	var hist *history.Store
	if cfg.History.Enabled {
		var err error
		hist, err = history.Open(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		recorder = hist
	}

	manager := batch.NewManager(registry, inferenceGate, batch.NewResultStore(), recorder, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "taggerd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		gate:     inferenceGate,
		manager:  manager,
		history:  hist,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Registry returns the model registry.
func (d *Daemon) Registry() *tagger.Registry { return d.registry }

// Manager returns the queue manager.
func (d *Daemon) Manager() *batch.Manager { return d.manager }

// Gate returns the shared inference gate.
func (d *Daemon) Gate() *gate.Gate { return d.gate }

// History returns the history store, or nil when disabled.
func (d *Daemon) History() *history.Store { return d.history }

// Addr returns the bound API address once Start has succeeded.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Start acquires the instance lock, discovers models, and brings up the
// API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another taggerd instance is already running")
	}

	names, err := d.registry.Refresh()
	if err != nil {
		d.logger.Warn("model discovery failed", logging.Error(err))
	} else {
		d.logger.Info("models discovered", logging.Int("count", len(names)))
	}

	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("taggerd daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.Addr()))
	return nil
}

// Stop shuts the API server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("taggerd daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}
