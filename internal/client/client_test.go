package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentapp/mentapp-go/internal/session"
)

func newTestClient(t *testing.T, serverURL string, onExpired func()) (*Client, *session.Store) {
	t.Helper()
	store := session.NewStore(session.NewMemoryStorage())
	c, err := New(Config{BaseURL: serverURL, OnSessionExpired: onExpired}, store)
	require.NoError(t, err)
	return c, store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, session.NewStore(nil))
	assert.Error(t, err)
}

func TestRefreshAndReplay_Success(t *testing.T) {
	var refreshCalls int32
	var replayAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		// The refresh call itself must carry no Authorization header.
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "refresh-1", r.Header.Get("authorization-refresh"))
		writeJSON(w, http.StatusOK, map[string]string{
			"accessToken":  "access-new",
			"refreshToken": "refresh-2",
		})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-new" {
			// The original body must never be what the caller sees.
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
			return
		}
		replayAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, ProfileResponse{Nickname: "alice"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.SetAuthed(
		session.Profile{LocalID: "a", Username: "a"},
		session.Tokens{AccessToken: "access-old", RefreshToken: "refresh-1"},
	))

	profile, err := c.GetProfile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Nickname, "caller must see the replay's body")
	assert.Equal(t, "Bearer access-new", replayAuth)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "access-new", store.AccessToken())
	assert.Equal(t, "refresh-2", store.RefreshToken(), "rotated refresh token must be stored")
}

func TestRefreshAndReplay_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-new"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.SetAuthed(
		session.Profile{LocalID: "a", Username: "a"},
		session.Tokens{AccessToken: "stale", RefreshToken: "refresh-1"},
	))

	_, err := c.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", store.RefreshToken())
}

func TestReplay_OneShotOnly(t *testing.T) {
	var refreshCalls, dataCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-new"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dataCalls, 1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "still no"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.UpdateTokens("stale", "refresh-1"))

	_, err := c.GetProfile(context.Background())
	require.Error(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "no second refresh for the same request")
	assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls), "original plus exactly one replay")
	assert.EqualError(t, err, "still no", "the replay's error propagates")
}

func TestNoRefreshToken_FailsWithoutNetworkRefresh(t *testing.T) {
	var refreshCalls int32
	expired := false

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, func() { expired = true })
	store.SetAccessToken("stale-access-only")

	_, err := c.GetProfile(context.Background())
	require.Error(t, err)

	assert.True(t, HasCode(err, CodeSessionExpired))
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls), "no refresh call may be attempted")
	assert.True(t, expired, "session-expired callback must fire")
	assert.False(t, store.IsAuthed())
	assert.Empty(t, store.AccessToken())
	assert.Nil(t, store.Profile())
}

func TestRefreshFailure_ClearsSession(t *testing.T) {
	expired := false

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "refresh token revoked"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, func() { expired = true })
	require.NoError(t, store.SetAuthed(
		session.Profile{LocalID: "a", Username: "a"},
		session.Tokens{AccessToken: "stale", RefreshToken: "revoked"},
	))

	_, err := c.GetProfile(context.Background())
	require.Error(t, err)

	assert.True(t, HasCode(err, CodeTokenRefreshFailed))
	assert.True(t, expired)
	assert.False(t, store.IsAuthed())
	assert.Empty(t, store.RefreshToken())
}

func TestRefreshReturningNoToken_ClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok but empty"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.UpdateTokens("stale", "refresh-1"))

	_, err := c.GetProfile(context.Background())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeTokenRefreshFailed))
	assert.False(t, store.IsAuthed())
}

func TestExcludedCalls_NeverTriggerRefresh(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "new"})
	})
	// Everything else answers 401 to tempt the refresh flow.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "no"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.UpdateTokens("access", "refresh-1"))

	_, err := c.Login(context.Background(), "a", "pw")
	assert.Error(t, err)

	_, err = c.Register(context.Background(), RegisterRequest{LocalID: "a"})
	assert.Error(t, err)

	_, err = c.MentList(context.Background())
	assert.Error(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
	// The excluded 401s must also leave the session alone.
	assert.True(t, store.IsAuthed())
}

func TestAnonymousMentList_NoAuthorizationHeader(t *testing.T) {
	var gotAuth *string

	mux := http.NewServeMux()
	mux.HandleFunc("/ment/list", func(w http.ResponseWriter, r *http.Request) {
		v := r.Header.Get("Authorization")
		gotAuth = &v
		writeJSON(w, http.StatusOK, []MentItem{{MentID: 1, ContentKo: "안녕"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, _ := newTestClient(t, server.URL, nil)

	var ments []MentItem
	err := c.Do(context.Background(), Request{Path: "/ment/list", SkipAuth: true, NoRefresh: true}, &ments)
	require.NoError(t, err)

	require.NotNil(t, gotAuth)
	assert.Empty(t, *gotAuth)
	require.Len(t, ments, 1)
	assert.Equal(t, "안녕", ments[0].ContentKo)
}

func TestMissingToken_SendsNoHeaderWithoutError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ment/list", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []MentItem{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, _ := newTestClient(t, server.URL, nil)

	// No token in the store and SkipAuth unset: the request goes out
	// anonymous rather than failing locally.
	_, err := c.MentList(context.Background())
	assert.NoError(t, err)
}

func TestErrorNormalization_BackendMessageWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/request/comment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "MENT_TOO_SHORT"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	store.SetAccessToken("access")

	_, err := c.SubmitMent(context.Background(), "hi")
	require.Error(t, err)
	assert.EqualError(t, err, "MENT_TOO_SHORT")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	// A body with no message falls back to the generic form.
	_, err = c.GetProfile(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeRequestFailed, apiErr.Code)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestCancellation_NoRetry(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.UpdateTokens("access", "refresh"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetProfile(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshCalls))
	// Cancellation must not touch the session.
	assert.True(t, store.IsAuthed())
}

func TestConcurrentRequests_EachGetsAuthenticatedReplay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "access-new"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{Nickname: "alice"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c, store := newTestClient(t, server.URL, nil)
	require.NoError(t, store.UpdateTokens("stale", "refresh-1"))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetProfile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, "access-new", store.AccessToken())
}

func TestBaseOverride(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "other origin"})
	}))
	defer other.Close()

	c, _ := newTestClient(t, "http://main.invalid", nil)

	var resp MessageResponse
	err := c.Do(context.Background(), Request{
		Path:         "/ping",
		SkipAuth:     true,
		NoRefresh:    true,
		BaseOverride: other.URL,
	}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "other origin", resp.Message)
}
