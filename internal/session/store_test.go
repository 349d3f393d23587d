package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAuthed_TokenIsolation(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage)

	err := store.SetAuthed(
		Profile{LocalID: "alice@example.com", Username: "alice", UserNum: 42},
		Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"},
	)
	require.NoError(t, err)

	assert.Equal(t, "access-1", store.AccessToken())
	assert.Equal(t, "refresh-1", store.RefreshToken())
	assert.True(t, store.IsAuthed())

	// Simulate a process restart: the memory cell is gone, durable
	// storage is not.
	restarted := NewStore(storage)
	assert.Empty(t, restarted.AccessToken())
	assert.Equal(t, "refresh-1", restarted.RefreshToken())
	assert.True(t, restarted.IsAuthed())

	profile := restarted.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, "alice@example.com", profile.LocalID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(42), profile.UserNum)
}

func TestSetAuthed_AccessTokenNeverPersisted(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage)

	require.NoError(t, store.SetAuthed(
		Profile{LocalID: "a", Username: "a"},
		Tokens{AccessToken: "secret-access"},
	))

	for key := range storage.values {
		v, _ := storage.Get(key)
		assert.NotEqual(t, "secret-access", v, "access token leaked to durable key %s", key)
	}
}

func TestUpdateTokens_KeepsRefreshWhenNotRotated(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.SetAuthed(
		Profile{LocalID: "a", Username: "a"},
		Tokens{AccessToken: "old", RefreshToken: "refresh-1"},
	))

	require.NoError(t, store.UpdateTokens("new", ""))
	assert.Equal(t, "new", store.AccessToken())
	assert.Equal(t, "refresh-1", store.RefreshToken())

	require.NoError(t, store.UpdateTokens("newer", "refresh-2"))
	assert.Equal(t, "refresh-2", store.RefreshToken())
}

func TestClearAuthed_Idempotent(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.SetAuthed(
		Profile{LocalID: "a", Username: "a", UserNum: 7},
		Tokens{AccessToken: "access", RefreshToken: "refresh"},
	))
	require.True(t, store.IsAuthed())

	require.NoError(t, store.ClearAuthed())
	assert.False(t, store.IsAuthed())
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
	assert.Nil(t, store.Profile())

	// A second clear finds nothing and changes nothing.
	require.NoError(t, store.ClearAuthed())
	assert.False(t, store.IsAuthed())
}

func TestIsAuthed_EitherTokenSuffices(t *testing.T) {
	store := NewStore(nil)
	assert.False(t, store.IsAuthed())

	store.SetAccessToken("access-only")
	assert.True(t, store.IsAuthed())

	store.SetAccessToken("")
	assert.False(t, store.IsAuthed())

	require.NoError(t, store.UpdateTokens("", "refresh-only"))
	assert.True(t, store.IsAuthed())
}

func TestOAuthStateLifecycle(t *testing.T) {
	store := NewStore(nil)
	assert.Empty(t, store.OAuthState())

	require.NoError(t, store.SetOAuthState("state-123", "https://app.example.com/auth/callback"))
	assert.Equal(t, "state-123", store.OAuthState())

	require.NoError(t, store.ClearOAuthState())
	assert.Empty(t, store.OAuthState())

	// Clearing OAuth state must not touch the session proper.
	require.NoError(t, store.SetAuthed(
		Profile{LocalID: "a", Username: "a"},
		Tokens{RefreshToken: "refresh"},
	))
	require.NoError(t, store.SetOAuthState("s", "r"))
	require.NoError(t, store.ClearOAuthState())
	assert.True(t, store.IsAuthed())
}
