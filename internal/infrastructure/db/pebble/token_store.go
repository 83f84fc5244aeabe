// Package pebble keeps the bearer token in a local pebble database. It is the
// default durable client storage.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Config captures the settings for opening the local store.
type Config struct {
	Path string
	Key  string
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests.
	FS vfs.FS
}

// TokenStore implements ports.TokenStore over a pebble database.
type TokenStore struct {
	db  *pebble.DB
	key []byte
}

// Open creates the directory if needed and opens the database.
func Open(cfg Config) (*TokenStore, error) {
	if cfg.Key == "" {
		return nil, errors.New("pebble token store: empty key")
	}
	opts := &pebble.Options{}
	if cfg.FS != nil {
		opts.FS = cfg.FS
	} else if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
		return nil, fmt.Errorf("pebble token store: %w", err)
	}

	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &TokenStore{db: db, key: []byte(cfg.Key)}, nil
}

func (s *TokenStore) Load(_ context.Context) (string, bool, error) {
	v, closer, err := s.db.Get(s.key)
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	// v is only valid until closer.Close.
	return string(v), len(v) > 0, nil
}

func (s *TokenStore) Save(_ context.Context, token string) error {
	if err := s.db.Set(s.key, []byte(token), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(_ context.Context) error {
	if err := s.db.Delete(s.key, pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
