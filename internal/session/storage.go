package session

import "sync"

// Durable storage keys. These mirror the web client's localStorage layout so
// a credentials file written by one tool version stays readable by the next.
const (
	KeyRefreshToken = "auth/refreshToken"
	KeyLocalID      = "auth/localId"
	KeyUsername     = "auth/username"
	KeyUserNum      = "auth/userNum"

	// KeyLegacyToken held the access token in very old clients. It is never
	// written anymore but still removed on clear.
	KeyLegacyToken = "auth/token"

	// OAuth CSRF state lives in its own short-lived slots, cleared as soon as
	// the callback completes or fails.
	KeyOAuthState       = "oauth/state"
	KeyOAuthRedirectURI = "oauth/redirectUri"
)

// Storage is a small durable key-value store for the parts of a session that
// must survive a process restart (refresh token, cached profile).
// Implementations can back it with a file, a keyring, or a map for tests.
type Storage interface {
	// Get returns the value for key, or "" if the key is not set.
	Get(key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// MemoryStorage is an in-process Storage, used by tests and by callers that
// do not want sessions to outlive the process.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
