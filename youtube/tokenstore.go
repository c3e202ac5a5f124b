// Package youtube owns the OAuth credential lifecycle and the upload
// calls against the YouTube Data API.
package youtube

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"golang.org/x/oauth2"

	apperrors "newscast/errors"
)

// TokenStore persists the OAuth token as a JSON file. Writes are
// atomic so a crash never leaves a truncated credential behind.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Path() string { return s.path }

func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *TokenStore) Load() (*oauth2.Token, error) {
	const op = "TokenStore.Load"

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound(op, err, "No stored token")
	}
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to read token file")
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, apperrors.Internal(op, err, "Token file is corrupt")
	}

	return token, nil
}

func (s *TokenStore) Save(token *oauth2.Token) error {
	const op = "TokenStore.Save"

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.Internal(op, err, "Failed to create token directory")
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return apperrors.Internal(op, err, "Failed to encode token")
	}

	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return apperrors.Internal(op, err, "Failed to write token file")
	}

	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (s *TokenStore) Clear() error {
	const op = "TokenStore.Clear"

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Internal(op, err, "Failed to remove token file")
	}
	return nil
}
