// Package state persists the gateway's small per-installation state:
// the upstream bearer token and the last-seen website display name.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type record struct {
	Token       string `json:"token,omitempty"`
	WebsiteName string `json:"website_name,omitempty"`
}

// FileStore is a file-backed credential store. The file is the source
// of truth; every mutation is written through before returning. Writes
// are atomic (tmp file + rename).
type FileStore struct {
	mu   sync.RWMutex
	path string
	rec  record
}

// Open loads the store at path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.rec); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return s, nil
}

// Token returns the persisted upstream token, or "" if none.
func (s *FileStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Token
}

// SetToken persists the upstream token.
func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Token = token
	return s.flushLocked()
}

// ClearToken removes the upstream token.
func (s *FileStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Token = ""
	return s.flushLocked()
}

// WebsiteName returns the last-seen website display name, or "".
func (s *FileStore) WebsiteName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.WebsiteName
}

// SetWebsiteName persists the website display name.
func (s *FileStore) SetWebsiteName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.WebsiteName = name
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
