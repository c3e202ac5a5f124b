package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	apperrors "newscast/errors"
	"newscast/pipeline"
)

// PendingUpload is the state handed from the generate task to the
// upload task. Its absence means there is nothing to upload.
type PendingUpload struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Result      pipeline.RunResult `json:"result"`
}

// StateStore persists the pending-upload record atomically so a crash
// between the two tasks never leaves a half-written record.
type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

func (s *StateStore) SavePending(result *pipeline.RunResult) error {
	const op = "StateStore.SavePending"

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.Internal(op, err, "Failed to create state directory")
	}

	data, err := json.MarshalIndent(PendingUpload{
		GeneratedAt: time.Now().UTC(),
		Result:      *result,
	}, "", "  ")
	if err != nil {
		return apperrors.Internal(op, err, "Failed to encode pending upload")
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return apperrors.Internal(op, err, "Failed to write state file")
	}
	return nil
}

func (s *StateStore) LoadPending() (*PendingUpload, error) {
	const op = "StateStore.LoadPending"

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound(op, err, "No pending upload")
	}
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to read state file")
	}

	pending := &PendingUpload{}
	if err := json.Unmarshal(data, pending); err != nil {
		return nil, apperrors.Internal(op, err, "State file is corrupt")
	}
	return pending, nil
}

func (s *StateStore) ClearPending() error {
	const op = "StateStore.ClearPending"

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Internal(op, err, "Failed to remove state file")
	}
	return nil
}
