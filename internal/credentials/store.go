// File: internal/credentials/store.go
package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/config"
)

var (
	// ErrNotFound is returned by Load when no cookies have been cached yet.
	ErrNotFound = errors.New("credentials not found")
	// ErrCorrupt is returned by Load when the cached cookies cannot be decoded.
	ErrCorrupt = errors.New("credentials corrupt")
)

// Store caches the cookie jar captured by an interactive login.
type Store interface {
	Load(ctx context.Context) ([]*network.Cookie, error)
	Save(ctx context.Context, cookies []*network.Cookie) error
}

// Open builds the Store selected by cfg. The returned close func releases any
// resources held by the backend and is always non-nil on success.
func Open(ctx context.Context, cfg config.CredentialsConfig, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Backend {
	case config.BackendFile:
		fileStore, err := NewFileStore(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		ps, err := NewPostgresStore(ctx, pool, cfg.Profile, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := ps.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return ps, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Backend)
	}
}
