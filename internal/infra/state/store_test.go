package state_test

import (
	"path/filepath"
	"testing"

	"github.com/portalfin/dashboard-bff-go/internal/infra/state"
)

func TestFileStore_EmptyWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	if s.Token() != "" {
		t.Errorf("expected empty token, got %q", s.Token())
	}
	if s.WebsiteName() != "" {
		t.Errorf("expected empty website name, got %q", s.WebsiteName())
	}
}

func TestFileStore_TokenSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.SetWebsiteName("My Site"); err != nil {
		t.Fatalf("set website name: %v", err)
	}

	reopened, err := state.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Token(); got != "abc" {
		t.Errorf("expected token 'abc' after reopen, got %q", got)
	}
	if got := reopened.WebsiteName(); got != "My Site" {
		t.Errorf("expected website name 'My Site' after reopen, got %q", got)
	}
}

func TestFileStore_ClearToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear token: %v", err)
	}

	if s.Token() != "" {
		t.Errorf("expected empty token after clear, got %q", s.Token())
	}

	reopened, err := state.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Token() != "" {
		t.Errorf("expected cleared token to persist, got %q", reopened.Token())
	}
}

func TestFileStore_ClearTokenKeepsWebsiteName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := state.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.SetWebsiteName("My Site"); err != nil {
		t.Fatalf("set website name: %v", err)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear token: %v", err)
	}

	if got := s.WebsiteName(); got != "My Site" {
		t.Errorf("expected website name to survive token clear, got %q", got)
	}
}
