package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StatusFileName is the name of the status file
const StatusFileName = "status.json"

// StatusPersistence saves the last run status between processes
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus stores status
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus returns the stored status, or an Idle status on first run
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

type fileStatusPersistence struct {
	dir string
}

// NewFileStatusPersistence stores status.json in dir
func NewFileStatusPersistence(dir string) StatusPersistence {
	return &fileStatusPersistence{dir: dir}
}

// SaveStatus writes the status atomically
func (f *fileStatusPersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	if err := os.MkdirAll(f.dir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	filePath := filepath.Join(f.dir, StatusFileName)
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

// LoadStatus reads the status file
func (f *fileStatusPersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	// #nosec G304 -- dir comes from configuration
	data, err := os.ReadFile(filepath.Join(f.dir, StatusFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SyncStatus{Phase: SyncPhaseIdle}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}
