// File: internal/credentials/postgres.go
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	sqlCreateTable = `
        CREATE TABLE IF NOT EXISTS mediumctl_credentials (
            profile TEXT PRIMARY KEY,
            cookies JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`

	sqlSelectCookies = `SELECT cookies FROM mediumctl_credentials WHERE profile = $1`

	sqlUpsertCookies = `
        INSERT INTO mediumctl_credentials (profile, cookies, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (profile) DO UPDATE SET
            cookies = EXCLUDED.cookies,
            updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps one cookie jar per named profile, so several machines
// can share a login.
type PostgresStore struct {
	pool    DBPool
	profile string
	log     *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore verifies the connection and returns a store for profile.
func NewPostgresStore(ctx context.Context, pool DBPool, profile string, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{
		pool:    pool,
		profile: profile,
		log:     logger.Named("credentials.postgres").With(zap.String("profile", profile)),
	}, nil
}

// EnsureSchema creates the credentials table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlCreateTable); err != nil {
		return fmt.Errorf("failed to create credentials table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]*network.Cookie, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, sqlSelectCookies, s.profile).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: profile %q", ErrNotFound, s.profile)
		}
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	var cookies []*network.Cookie
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return nil, fmt.Errorf("%w: profile %q: %v", ErrCorrupt, s.profile, err)
	}
	s.log.Debug("Loaded cached cookies.", zap.Int("count", len(cookies)))
	return cookies, nil
}

func (s *PostgresStore) Save(ctx context.Context, cookies []*network.Cookie) error {
	if cookies == nil {
		cookies = []*network.Cookie{}
	}
	raw, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	if _, err := s.pool.Exec(ctx, sqlUpsertCookies, s.profile, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	s.log.Info("Cached session cookies.", zap.Int("count", len(cookies)))
	return nil
}
