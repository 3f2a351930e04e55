// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxroute/taxroute-tui/internal/model"
)

func sessionFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestOpenPath_MissingFile(t *testing.T) {
	s := OpenPath(sessionFile(t))
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestOpenPath_CorruptFile(t *testing.T) {
	path := sessionFile(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := OpenPath(path)
	assert.False(t, s.LoggedIn())
}

func TestSetAndReload(t *testing.T) {
	path := sessionFile(t)

	s := OpenPath(path)
	user := &model.User{ID: 7, Email: "kim@example.com", DisplayName: "김민수"}
	require.NoError(t, s.Set("tok-abc123", user))
	assert.True(t, s.LoggedIn())

	reloaded := OpenPath(path)
	assert.Equal(t, "tok-abc123", reloaded.Token())
	require.NotNil(t, reloaded.User())
	assert.Equal(t, int64(7), reloaded.User().ID)
	assert.Equal(t, "김민수", reloaded.User().DisplayName)
}

func TestSessionFilePermissions(t *testing.T) {
	path := sessionFile(t)
	s := OpenPath(path)
	require.NoError(t, s.Set("tok", nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestClear(t *testing.T) {
	path := sessionFile(t)
	s := OpenPath(path)
	require.NoError(t, s.Set("tok", &model.User{ID: 1, Email: "a@b.c"}))

	require.NoError(t, s.Clear())
	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.User())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-cleared session is fine.
	require.NoError(t, s.Clear())
}

func TestSetUser(t *testing.T) {
	path := sessionFile(t)
	s := OpenPath(path)
	require.NoError(t, s.Set("tok", &model.User{ID: 1, Email: "a@b.c"}))
	require.NoError(t, s.SetUser(&model.User{ID: 1, Email: "a@b.c", DisplayName: "Updated"}))

	reloaded := OpenPath(path)
	assert.Equal(t, "tok", reloaded.Token())
	assert.Equal(t, "Updated", reloaded.User().DisplayName)
}
