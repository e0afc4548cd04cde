package sessionstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/core/auth"
	"github.com/trezcool/trace/core/user"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	st, err := store.Load()
	require.NoError(t, err)
	assert.True(t, st.IsZero(), "missing file loads an empty state")

	want := auth.State{
		Token:      "a.b.c",
		Role:       user.RoleAlumni,
		IsApproved: true,
		User:       &user.User{ID: "7", Username: "juan", Email: "juan@example.com", Role: user.RoleAlumni, BatchYear: 2019},
	}
	require.NoError(t, store.Save(want))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.Role, got.Role)
	assert.True(t, got.IsApproved)
	require.NotNil(t, got.User)
	assert.Equal(t, "juan", got.User.Username)
	assert.Equal(t, 2019, got.User.BatchYear)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
	got, err = store.Load()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}
