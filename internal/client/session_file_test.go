package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
)

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	_, err := LoadSession(path)
	require.ErrorIs(t, err, ErrSessionExpired)

	user := models.User{ID: "u1", Username: "amina", Role: models.RoleTenant}
	sess := auth.NewSession("tok", user, "t1", time.Now().Add(time.Hour))
	require.NoError(t, SaveSession(path, sess))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.Token)
	assert.Equal(t, "t1", loaded.TenantID)
	assert.Equal(t, models.RoleTenant, loaded.Role())

	require.NoError(t, RemoveSession(path))
	require.NoError(t, RemoveSession(path))
	_, err = LoadSession(path)
	assert.ErrorIs(t, err, ErrSessionExpired)

	stale := auth.NewSession("tok", user, "", time.Now().Add(-time.Second))
	assert.ErrorIs(t, SaveSession(path, stale), ErrSessionExpired)
}
