// Package app assembles the catalog shelf and its dependencies from
// configuration. Both the server and the CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kug0115-cpu/kookmath/internal/platform/cache"
	"github.com/kug0115-cpu/kookmath/internal/platform/config"
	"github.com/kug0115-cpu/kookmath/internal/platform/database"
	"github.com/kug0115-cpu/kookmath/internal/shelf"
	"github.com/kug0115-cpu/kookmath/internal/storage"
	"github.com/kug0115-cpu/kookmath/internal/web"
)

// App holds the opened shelf and everything that must be closed with it.
type App struct {
	Shelf    *shelf.Shelf
	Checkers []web.Checker

	cfg     *config.Config
	closers []func() error
}

// New connects the configured storage, opens the shelf and loads the catalog.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	gateway, events, err := a.storage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.UsesCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		a.Checkers = append(a.Checkers, c)
		gateway = c.Wrap(gateway, cfg.Storage.Document, cfg.Cache.TTL)
		slog.Info("catalog cache enabled", "ttl", cfg.Cache.TTL)
	}

	a.Shelf = shelf.New(shelf.Config{
		Gateway:      gateway,
		Events:       events,
		ShareBaseURL: cfg.Share.BaseURL,
	})
	a.Shelf.Open(ctx)
	return a, nil
}

func (a *App) storage(ctx context.Context) (storage.Gateway, shelf.EventLogger, error) {
	cfg := a.cfg
	switch cfg.Storage.Driver {
	case config.DriverFile:
		g := storage.NewFileGateway(cfg.Storage.Path)
		slog.Info("using file storage", "path", g.Path())
		return g, nil, nil

	case config.DriverSQLite:
		g, err := storage.NewSQLiteGateway(ctx, cfg.Storage.SQLitePath, cfg.Storage.Document)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, g.Close)
		slog.Info("using sqlite storage", "path", cfg.Storage.SQLitePath, "document", cfg.Storage.Document)
		return g, nil, nil

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, func() error {
			db.Close()
			return nil
		})
		a.Checkers = append(a.Checkers, db)

		g, err := storage.NewPostgresGateway(db.Pool, cfg.Storage.Document)
		if err != nil {
			return nil, nil, err
		}
		if err := g.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		events := shelf.NewPostgresEventLogger(db.Pool)
		if err := events.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		slog.Info("using postgres storage", "document", cfg.Storage.Document)
		return g, events, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// WatchesFile reports whether the catalog file should be watched for edits
// made outside this process. Only a view-only server watches; with admin
// editing on, this process owns the file.
func (a *App) WatchesFile() bool {
	return a.cfg.Storage.Driver == config.DriverFile && a.cfg.Storage.Watch && !a.cfg.Admin.Enabled
}

// Watch reloads the shelf whenever the catalog file changes, until ctx is
// done. It is a no-op unless WatchesFile reports true.
func (a *App) Watch(ctx context.Context) error {
	if !a.WatchesFile() {
		return nil
	}
	w, err := storage.NewFileWatcher(a.cfg.Storage.Path, storage.DefaultWatchDebounce, a.Shelf.Reload)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, w.Close)
	go w.Run(ctx)
	slog.Info("watching catalog file", "path", a.cfg.Storage.Path)
	return nil
}

// Close releases everything New and Watch opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
