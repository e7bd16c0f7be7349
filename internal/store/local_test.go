package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finlens/internal/model"
)

func openTemp(t *testing.T) *Local {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestFlagRoundTrip(t *testing.T) {
	l := openTemp(t)

	on, err := l.Flag("finlens_token")
	require.NoError(t, err)
	assert.False(t, on, "missing flag reads as false")

	require.NoError(t, l.SetFlag("finlens_token", true))
	require.NoError(t, l.SetFlag("finlens_token", true))
	on, err = l.Flag("finlens_token")
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, l.SetFlag("finlens_token", false))
	on, err = l.Flag("finlens_token")
	require.NoError(t, err)
	assert.False(t, on)

	// clearing an absent flag is fine
	require.NoError(t, l.SetFlag("other", false))
}

func TestAuthSession(t *testing.T) {
	l := openTemp(t)

	got, err := l.LoadAuthSession()
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, l.SaveAuthSession(model.AuthSession{
		UID: "u1", Email: "a@example.com", IDToken: "tok", RefreshToken: "ref", SignedInAt: at,
	}))
	require.NoError(t, l.SaveAuthSession(model.AuthSession{UID: "u2", Email: "b@example.com", SignedInAt: at}))

	got, err = l.LoadAuthSession()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.UID)
	assert.Equal(t, "b@example.com", got.Email)
	assert.Empty(t, got.IDToken)
	assert.True(t, got.SignedInAt.Equal(at))

	require.NoError(t, l.ClearAuthSession())
	got, err = l.LoadAuthSession()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveAuthSessionRequiresUID(t *testing.T) {
	l := openTemp(t)
	assert.Error(t, l.SaveAuthSession(model.AuthSession{Email: "x@example.com"}))
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.SetFlag("finlens_token", true))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	on, err := l.Flag("finlens_token")
	require.NoError(t, err)
	assert.True(t, on)
}
