package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
)

// savedSession is the on-disk form of a session.
type savedSession struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	TenantID  string      `json:"tenant_id,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// DefaultSessionPath returns the per-user location of the saved CLI session.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "seams", "session.json"), nil
}

// SaveSession writes sess to path, readable only by the owner.
func SaveSession(path string, sess *auth.Session) error {
	if !sess.Valid(time.Now()) {
		return ErrSessionExpired
	}
	data, err := json.MarshalIndent(savedSession{
		Token:     sess.Token,
		User:      sess.User,
		TenantID:  sess.TenantID,
		ExpiresAt: sess.ExpiresAt,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSession reads a saved session. A missing or stale file is ErrSessionExpired.
func LoadSession(path string) (*auth.Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	sess := auth.NewSession(saved.Token, saved.User, saved.TenantID, saved.ExpiresAt)
	if !sess.Valid(time.Now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// RemoveSession deletes a saved session. A missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
