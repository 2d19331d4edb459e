package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"area/pkg/logging"
)

// DefaultSessionFileName is the file the session credential is persisted
// to, inside the client's config directory.
const DefaultSessionFileName = "session.json"

// Credential is the persisted session state for an authenticated user.
type Credential struct {
	// AccessToken is the backend session bearer token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the backend session refresh token, when issued.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Email is the account the session belongs to. Display only.
	Email string `json:"email,omitempty"`

	// CreatedAt is when the session was established.
	CreatedAt time.Time `json:"created_at"`
}

// Store provides thread-safe access to the session credential, with
// optional file persistence.
//
// SECURITY: the session file is written with 0600 permissions and its
// directory with 0700. Token values are never logged.
type Store struct {
	mu         sync.RWMutex
	credential *Credential
	filePath   string // empty means in-memory only
}

// StoreConfig configures a session store.
type StoreConfig struct {
	// Dir is the directory for the persisted session file. Empty disables
	// persistence (tokens live only in process memory).
	Dir string
}

// NewStore creates a session store. When persistence is enabled and a
// session file already exists, it is loaded eagerly so that commands run
// in fresh processes see the existing session.
func NewStore(cfg StoreConfig) (*Store, error) {
	s := &Store{}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
		s.filePath = filepath.Join(cfg.Dir, DefaultSessionFileName)
		s.loadFromFile()
	}

	return s, nil
}

// Set stores a new session credential, replacing any existing one.
// Last write wins.
func (s *Store) Set(cred Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = &cred

	if s.filePath != "" {
		data, err := json.MarshalIndent(&cred, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
	}

	logging.Debug("Session", "Session credential stored for %s", cred.Email)
	return nil
}

// Token returns the current bearer token, or "" when no session exists.
// Every outgoing request reads the credential through this method; a request
// already in flight keeps the value it captured.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.credential == nil {
		return ""
	}
	return s.credential.AccessToken
}

// Credential returns a copy of the full session credential, or nil when no
// session exists.
func (s *Store) Credential() *Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.credential == nil {
		return nil
	}
	cred := *s.credential
	return &cred
}

// Authenticated reports whether a session credential is present. It says
// nothing about server-side validity; an expired session surfaces as an
// authorization failure on the next call.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Clear removes the session credential from memory and disk. Called on
// logout and when the backend signals an expired session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credential = nil

	if s.filePath != "" {
		if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
	}

	logging.Debug("Session", "Session credential cleared")
	return nil
}

// Reload re-reads the persisted session file, replacing the in-memory
// credential. Used by the watcher when another process updates the file.
// A missing file clears the in-memory credential (external logout).
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadFromFileLocked()
}

// FilePath returns the path of the persisted session file, or "" when the
// store is in-memory only.
func (s *Store) FilePath() string {
	return s.filePath
}

func (s *Store) loadFromFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadFromFileLocked()
}

// loadFromFileLocked reads the session file into memory.
// REQUIRES: s.mu held.
func (s *Store) loadFromFileLocked() {
	if s.filePath == "" {
		return
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Session", "Failed to read session file: %v", err)
		}
		s.credential = nil
		return
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logging.Warn("Session", "Ignoring malformed session file: %v", err)
		s.credential = nil
		return
	}

	s.credential = &cred
}
