// File: internal/credentials/file.go
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/network"
	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// FileStore keeps the cookie jar as a JSON array on disk.
type FileStore struct {
	path   string
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. A leading ~ is expanded.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credentials file path is empty")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand credentials path %q: %w", path, err)
	}
	return &FileStore{
		path:   expanded,
		logger: logger.Named("credentials.file"),
	}, nil
}

// Path reports the expanded file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) ([]*network.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var cookies []*network.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	s.logger.Debug("Loaded cached cookies.", zap.String("path", s.path), zap.Int("count", len(cookies)))
	return cookies, nil
}

// Save replaces the file contents atomically. The file is readable by the owner only.
func (s *FileStore) Save(ctx context.Context, cookies []*network.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cookies == nil {
		cookies = []*network.Cookie{}
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credentials file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush credentials: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}

	s.logger.Info("Cached session cookies.", zap.String("path", s.path), zap.Int("count", len(cookies)))
	return nil
}
