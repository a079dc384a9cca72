// Package storage provides string key/value persistence for local client state.
//
// It plays the role a browser's localStorage plays for a web client: callers
// keep a few well-known keys whose values are serialized documents. Three
// backends are available (plain files, SQLite and bbolt), chosen by config.
package storage

import (
	"fmt"
	"os"

	"github.com/diogo/choicemate/internal/config"
	apierrors "github.com/diogo/choicemate/internal/errors"
)

// KV is a string key/value store
type KV interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value
	Set(key, value string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(key string) error
	// Path is the file backing the store, used for change watching.
	// It is empty for in-memory stores.
	Path() string
	Close() error
}

// Open creates the backend selected by cfg
func Open(cfg config.Config) (KV, error) {
	dir, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	backend := cfg.Storage.Backend
	if backend == "" {
		backend = config.BackendFile
	}

	switch backend {
	case config.BackendFile:
		return NewFileKV(dir)
	case config.BackendSQLite:
		return NewSQLiteKV(dir)
	case config.BackendBolt:
		return NewBoltKV(dir)
	default:
		return nil, apierrors.NewConfigError("storage.backend", fmt.Sprintf("unknown backend %q", backend))
	}
}
