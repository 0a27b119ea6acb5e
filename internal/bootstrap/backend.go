// Package bootstrap wires the roster store from configuration for the
// server and the command line tool.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/document"
	"github.com/noah-isme/school-roster/internal/repository"
	"github.com/noah-isme/school-roster/internal/service"
	"github.com/noah-isme/school-roster/pkg/config"
	"github.com/noah-isme/school-roster/pkg/database"
	"github.com/noah-isme/school-roster/pkg/storage"
)

// OpenBackend builds the persistence backend named by cfg.Store.Backend. The
// returned closer releases any connection the backend holds.
func OpenBackend(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, log *zap.Logger) (service.Backend, func() error, error) {
	switch cfg.Store.Backend {
	case "", config.BackendDocument:
		files, err := storage.NewLocalStorage(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		return document.NewBackend(files, log), func() error { return nil }, nil
	case config.BackendRelational:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := repository.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		var observer repository.QueryObserver
		if metrics != nil {
			observer = metrics
		}
		return repository.NewRelationalBackend(db, observer, log), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// OpenRoster opens the configured backend and loads it into a new store. A
// partial load failure is returned with the store still usable.
func OpenRoster(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, log *zap.Logger) (*service.RosterService, func() error, error) {
	backend, closer, err := OpenBackend(ctx, cfg, metrics, log)
	if err != nil {
		return nil, nil, err
	}
	roster := service.NewRosterService(backend, service.RosterOptions{
		UniqueNames: cfg.Store.UniqueNames,
		Metrics:     metrics,
	}, nil, log)

	if _, err := roster.Load(ctx); err != nil {
		return roster, closer, err
	}
	return roster, closer, nil
}
