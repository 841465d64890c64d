package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dori/tasklist/internal/client"
	"github.com/dori/tasklist/internal/config"
	"github.com/dori/tasklist/internal/db"
	"github.com/dori/tasklist/internal/logging"
	"github.com/dori/tasklist/internal/notify"
	"github.com/dori/tasklist/internal/server"
	"github.com/dori/tasklist/internal/ui/views"
	"github.com/gofrs/flock"
)

// App holds the client side dependencies
type App struct {
	Config   *config.Config
	Client   *client.Client
	Logger   *log.Logger
	Reporter views.Reporter
	Notifier *notify.Notifier
	logFile  *os.File
}

// New wires the TUI dependencies. Logs go to cfg.LogFile because the
// terminal belongs to the renderer.
func New(cfg *config.Config) (*App, error) {
	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logFile, logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Prefix:    "todolist",
		Timestamp: true,
	})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	app := &App{
		Config:   cfg,
		Client:   client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout)),
		Logger:   logger,
		Notifier: notify.NewNotifier(),
		logFile:  logFile,
	}
	app.Notifier.SetEnabled(cfg.NotifyFailures)

	reporters := views.MultiReporter{logging.NewReporter(logger)}
	if cfg.NotifyFailures {
		reporters = append(reporters, app.Notifier)
	}
	app.Reporter = reporters

	logger.Debug("started", "base_url", app.Client.BaseURL(), "timeout", cfg.Timeout, "config", cfg.ConfigFile)
	return app, nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// Backend holds the reference server dependencies
type Backend struct {
	Config   *config.ServerConfig
	DB       *db.DB
	Server   *server.Server
	Logger   *log.Logger
	lockFile *flock.Flock
}

// NewBackend opens storage and builds the HTTP server
func NewBackend(cfg *config.ServerConfig) (*Backend, error) {
	logger, err := logging.New(os.Stderr, logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Prefix:    "todolistd",
		Timestamp: true,
	})
	if err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}

	b := &Backend{Config: cfg, Logger: logger}

	if cfg.Driver == config.DriverSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		// Acquire lock to ensure single instance
		if err := b.acquireLock(); err != nil {
			return nil, err
		}
	}

	database, err := db.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		b.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	b.DB = database
	b.Server = server.New(database, logger)

	logger.Info("storage ready", "driver", database.Driver())
	return b, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (b *Backend) acquireLock() error {
	lockPath := filepath.Join(b.Config.DataDir, "todolistd.lock")
	b.lockFile = flock.New(lockPath)

	locked, err := b.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of todolistd is already using %s", b.Config.DataDir)
	}

	return nil
}

// releaseLock releases the file lock
func (b *Backend) releaseLock() {
	if b.lockFile != nil {
		b.lockFile.Unlock()
	}
}

// Close cleans up backend resources
func (b *Backend) Close() error {
	var errs []error

	if b.DB != nil {
		if err := b.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	b.releaseLock()

	return errors.Join(errs...)
}
