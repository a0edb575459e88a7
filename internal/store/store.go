// Package store persists plugin settings and the curated list behind a
// narrow key-value contract.
package store

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Keys written by the sync engine
const (
	KeyLastSyncTime        = "lastSyncTime"
	KeyCuratedList         = "curatedList"
	KeyLeagueName          = "leagueName"
	KeyMinValueFloor       = "minValueFloor"
	KeySyncIntervalMinutes = "syncIntervalMinutes"
	KeyReplaceMode         = "replaceMode"
	KeyDeferExisting       = "deferExisting"
)

// Backend types
const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"
)

// ErrClosed is returned by a store used after Close
var ErrClosed = errors.New("store is closed")

// Store is a string key-value store
type Store interface {
	// Get returns the value for key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// PutAll writes every pair atomically: a reader sees all of them or none
	PutAll(ctx context.Context, values map[string]string) error

	// Close releases the backend
	Close() error
}

// Open creates the store of the given type. path is ignored for memory stores.
func Open(ctx context.Context, storeType, path string) (Store, error) {
	switch storeType {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeSQLite:
		return OpenSQLite(ctx, path)
	case TypeFile, "":
		return OpenFile(path)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
