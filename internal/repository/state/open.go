package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/gfs-monitor/internal/config"
)

// Store is a Repository bound to a file that can be released.
type Store interface {
	Repository

	// Path returns the file backing the store.
	Path() string
	// Close releases resources held by the store.
	Close() error
}

var errUnknownBackend = errors.New("unknown state backend")

// Open returns the store selected by the configured backend.
//
//nolint:ireturn // Callers pick the backend through configuration.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StateBackend {
	case config.BackendJSON, "":
		return NewFileRepository(cfg.StateFile), nil
	case config.BackendSQLite:
		repo, err := OpenSQLite(ctx, cfg.StateFile)
		if err != nil {
			return nil, err
		}

		return repo, nil
	default:
		return nil, fmt.Errorf("%q: %w", cfg.StateBackend, errUnknownBackend)
	}
}
