package session

import (
	"log/slog"
	"strconv"
	"sync"
)

// Profile is the cached display identity for the signed-in user.
type Profile struct {
	LocalID  string
	Username string
	UserNum  int64 // 0 when the backend did not send one
}

// Tokens carries the credential pair returned by login, register, OAuth
// exchange, and refresh. Either field may be empty.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Store holds the authentication state for one client instance.
//
// The access token lives only in memory and is gone after a restart; the
// refresh token and profile go through the injected Storage and survive.
// All methods are safe for concurrent use: multiple in-flight requests may
// race to refresh and update the token cell.
type Store struct {
	mu          sync.Mutex
	accessToken string
	storage     Storage
}

// NewStore creates a session store backed by the given durable storage.
// A nil storage gets an in-memory one, which means sessions will not
// survive a restart.
func NewStore(storage Storage) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{storage: storage}
}

// AccessToken returns the in-memory access token, or "" if none is held.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// SetAccessToken replaces the in-memory access token.
func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// RefreshToken returns the durable refresh token, or "" if none is stored.
func (s *Store) RefreshToken() string {
	v, err := s.storage.Get(KeyRefreshToken)
	if err != nil {
		slog.Debug("failed to read refresh token", "error", err)
		return ""
	}
	return v
}

// SetAuthed records a successful login, register, or OAuth exchange.
// The profile and refresh token go to durable storage; the access token
// stays in memory only.
func (s *Store) SetAuthed(profile Profile, tokens Tokens) error {
	if err := s.storage.Set(KeyLocalID, profile.LocalID); err != nil {
		return err
	}
	if err := s.storage.Set(KeyUsername, profile.Username); err != nil {
		return err
	}
	if profile.UserNum != 0 {
		if err := s.storage.Set(KeyUserNum, strconv.FormatInt(profile.UserNum, 10)); err != nil {
			return err
		}
	}
	if tokens.RefreshToken != "" {
		if err := s.storage.Set(KeyRefreshToken, tokens.RefreshToken); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.accessToken = tokens.AccessToken
	s.mu.Unlock()
	return nil
}

// UpdateTokens installs a freshly refreshed access token and, when the
// backend rotated it, the new refresh token. Backends that do not rotate
// pass refreshToken == "" and the stored one stays valid.
func (s *Store) UpdateTokens(accessToken, refreshToken string) error {
	s.mu.Lock()
	s.accessToken = accessToken
	s.mu.Unlock()

	if refreshToken != "" {
		return s.storage.Set(KeyRefreshToken, refreshToken)
	}
	return nil
}

// ClearAuthed destroys the whole session: memory cell and every durable
// key. It is idempotent; clearing an already-empty session is a no-op.
func (s *Store) ClearAuthed() error {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()

	var firstErr error
	for _, key := range []string{
		KeyLocalID, KeyUsername, KeyLegacyToken, KeyUserNum, KeyRefreshToken,
	} {
		if err := s.storage.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsAuthed reports whether a session exists. Either token alone counts:
// an access token means the current process is signed in, a refresh token
// means a reloaded process can recover without re-login.
func (s *Store) IsAuthed() bool {
	if s.AccessToken() != "" {
		return true
	}
	return s.RefreshToken() != ""
}

// Profile returns the cached profile, or nil if none is stored.
func (s *Store) Profile() *Profile {
	localID, err := s.storage.Get(KeyLocalID)
	if err != nil || localID == "" {
		return nil
	}
	username, err := s.storage.Get(KeyUsername)
	if err != nil || username == "" {
		return nil
	}

	p := &Profile{LocalID: localID, Username: username}
	if raw, err := s.storage.Get(KeyUserNum); err == nil && raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			p.UserNum = n
		}
	}
	return p
}

// IsAdmin decodes the in-memory access token and checks for an admin claim.
// Display-only: gates which menus the UI shows, never a server decision.
func (s *Store) IsAdmin() bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	claims, err := DecodeForDisplayOnly(token)
	if err != nil {
		return false
	}

	if role, ok := claims["role"].(string); ok && (role == "ADMIN" || role == "admin") {
		return true
	}
	if v, ok := claims["isAdmin"].(bool); ok && v {
		return true
	}
	if v, ok := claims["admin"].(bool); ok && v {
		return true
	}
	return false
}

// SetOAuthState saves the CSRF state and redirect URI for an in-flight
// OAuth authorization. These live outside the session proper and are
// cleared once the callback completes or fails.
func (s *Store) SetOAuthState(state, redirectURI string) error {
	if err := s.storage.Set(KeyOAuthState, state); err != nil {
		return err
	}
	return s.storage.Set(KeyOAuthRedirectURI, redirectURI)
}

// OAuthState returns the stored CSRF state, or "" if none is pending.
func (s *Store) OAuthState() string {
	v, err := s.storage.Get(KeyOAuthState)
	if err != nil {
		return ""
	}
	return v
}

// ClearOAuthState removes the pending OAuth state and redirect URI.
func (s *Store) ClearOAuthState() error {
	if err := s.storage.Delete(KeyOAuthState); err != nil {
		return err
	}
	return s.storage.Delete(KeyOAuthRedirectURI)
}
