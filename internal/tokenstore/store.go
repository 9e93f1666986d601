// Package tokenstore persists validated access tokens on disk.
//
// SECURITY: This store handles credentials. Files are created with 0600
// permissions inside a 0700 directory, token values are never logged (only
// hosts and logins), and expired tokens are rejected with a 60-second
// buffer.
package tokenstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/AstroAir/github-cli/pkg/ghauth"
)

// DefaultHost is the host tokens are stored under unless configured otherwise.
const DefaultHost = "github.com"

// tokenExpiryBuffer is the margin added when checking token validity.
// This accounts for clock skew, network latency, and long-running operations.
const tokenExpiryBuffer = 60 * time.Second

// StoredToken is a persisted token with its metadata.
type StoredToken struct {
	// Host is the GitHub host the token authenticates against.
	Host string `json:"host"`

	// Login is the validated account the token belongs to.
	Login string `json:"login"`

	// AccessToken is the bearer token.
	AccessToken string `json:"access_token"`

	// RefreshToken is present for expiring user tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "bearer".
	TokenType string `json:"token_type"`

	// Scope is the granted scope string.
	Scope string `json:"scope,omitempty"`

	// Expiry is when the access token expires, zero for non-expiring tokens.
	Expiry time.Time `json:"expiry,omitempty"`

	// CreatedAt is when the token was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Token converts the stored form back to a ghauth.Token.
func (t *StoredToken) Token() *ghauth.Token {
	return &ghauth.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Scope:        t.Scope,
		ExpiresAt:    t.Expiry,
	}
}

// Config configures the store.
type Config struct {
	// StorageDir is the directory for token files.
	// Defaults to ~/.config/github-cli/tokens.
	StorageDir string

	// FileMode enables file persistence. If false, tokens are in-memory only.
	FileMode bool
}

// Store keeps tokens keyed by host, with an in-memory cache in front of the
// optional file backend. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	storageDir string
	tokens     map[string]*StoredToken
	fileMode   bool
}

// NewStore creates a token store with the given configuration.
func NewStore(cfg Config) (*Store, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, ghauth.DefaultTokenStorageDir)
	}

	store := &Store{
		storageDir: storageDir,
		tokens:     make(map[string]*StoredToken),
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token storage directory: %w", err)
		}
	}

	return store, nil
}

// Save stores a validated token for a host.
// SECURITY: Token values are never logged, only host and login.
func (s *Store) Save(host string, token *ghauth.Token, user *ghauth.UserInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredToken{
		Host:         host,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
		Expiry:       token.ExpiresAt,
		CreatedAt:    time.Now(),
	}
	if user != nil {
		stored.Login = user.Login
	}

	key := s.tokenKey(host)
	s.tokens[key] = stored

	if s.fileMode {
		if err := s.writeTokenFile(key, stored); err != nil {
			slog.Warn("SECURITY_AUDIT: token storage failed",
				"event", "token_store_failed",
				"host", host,
				"error", err.Error(),
			)
			return fmt.Errorf("failed to persist token: %w", err)
		}
		slog.Info("SECURITY_AUDIT: token stored",
			"event", "token_stored",
			"host", host,
			"login", stored.Login,
			"has_refresh_token", stored.RefreshToken != "",
		)
	}

	return nil
}

// Get retrieves the stored token for a host.
// Returns nil if no token exists or the token has expired.
func (s *Store) Get(host string) *StoredToken {
	key := s.tokenKey(host)

	s.mu.RLock()
	if token, ok := s.tokens[key]; ok {
		if isTokenValid(token) {
			s.mu.RUnlock()
			return token
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[key]; ok {
		if isTokenValid(token) {
			return token
		}
		delete(s.tokens, key)
		return nil
	}

	if s.fileMode {
		token, err := s.readTokenFile(key)
		if err == nil && isTokenValid(token) {
			s.tokens[key] = token
			return token
		}
	}

	return nil
}

// HasValidToken reports whether a usable token exists for the host.
func (s *Store) HasValidToken(host string) bool {
	return s.Get(host) != nil
}

// Delete removes the stored token for a host.
// SECURITY: Logs deletion for the audit trail without logging token values.
func (s *Store) Delete(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.tokenKey(host)
	delete(s.tokens, key)

	if s.fileMode {
		if err := s.deleteTokenFile(key); err != nil {
			slog.Warn("SECURITY_AUDIT: token deletion failed",
				"event", "token_delete_failed",
				"host", host,
				"error", err.Error(),
			)
			return err
		}
	}

	slog.Info("SECURITY_AUDIT: token deleted",
		"event", "token_deleted",
		"host", host,
	)
	return nil
}

// List returns every stored token, including expired ones, sorted by host.
// Used by the status command so expired entries stay visible.
func (s *Store) List() []*StoredToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]*StoredToken)
	for key, token := range s.tokens {
		seen[key] = token
	}

	if s.fileMode {
		entries, err := os.ReadDir(s.storageDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
					continue
				}
				key := entry.Name()[:len(entry.Name())-len(".json")]
				if _, ok := seen[key]; ok {
					continue
				}
				if token, err := s.readTokenFile(key); err == nil {
					seen[key] = token
				}
			}
		}
	}

	tokens := make([]*StoredToken, 0, len(seen))
	for _, token := range seen {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Host < tokens[j].Host })
	return tokens
}

// Clear removes all stored tokens.
// SECURITY: Logs bulk clearing for the audit trail.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memoryCount := len(s.tokens)
	s.tokens = make(map[string]*StoredToken)

	if s.fileMode {
		entries, err := os.ReadDir(s.storageDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to read token directory: %w", err)
		}

		fileCount := 0
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				filePath := filepath.Join(s.storageDir, entry.Name())
				if err := os.Remove(filePath); err != nil {
					return fmt.Errorf("failed to remove token file %s: %w", entry.Name(), err)
				}
				fileCount++
			}
		}

		slog.Info("SECURITY_AUDIT: all tokens cleared",
			"event", "tokens_cleared",
			"memory_tokens_cleared", memoryCount,
			"file_tokens_cleared", fileCount,
		)
	}

	return nil
}

// tokenKey generates a filesystem-safe key for a host.
func (s *Store) tokenKey(host string) string {
	hash := sha256.Sum256([]byte(host))
	return hex.EncodeToString(hash[:16])
}

// isTokenValid checks if a token is still valid (not expired).
func isTokenValid(token *StoredToken) bool {
	if token == nil {
		return false
	}
	if token.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(tokenExpiryBuffer).Before(token.Expiry)
}

func (s *Store) writeTokenFile(key string, token *StoredToken) error {
	filePath := filepath.Join(s.storageDir, key+".json")

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func (s *Store) readTokenFile(key string) (*StoredToken, error) {
	filePath := filepath.Join(s.storageDir, key+".json")

	// #nosec G304 -- filePath is constructed from internal key, not user input
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var token StoredToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &token, nil
}

func (s *Store) deleteTokenFile(key string) error {
	filePath := filepath.Join(s.storageDir, key+".json")
	err := os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil // Already deleted
	}
	return err
}
