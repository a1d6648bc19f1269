package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// memCreds is an in-memory credential store for tests.
type memCreds struct {
	mu          sync.Mutex
	token       string
	websiteName string
}

func (m *memCreds) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memCreds) SetToken(t string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
	return nil
}

func (m *memCreds) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *memCreds) WebsiteName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.websiteName
}

func (m *memCreds) SetWebsiteName(n string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.websiteName = n
	return nil
}

// mockAuth returns a fixed token or error.
type mockAuth struct {
	token string
	err   error
	calls int
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

// mockTenants records notifications.
type mockTenants struct {
	mu          sync.Mutex
	tokenEvents []string
	resets      int
}

func (m *mockTenants) TokenChanged(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenEvents = append(m.tokenEvents, token)
}

func (m *mockTenants) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func newSession(creds *memCreds, auth *mockAuth, tenants *mockTenants) *service.SessionService {
	return service.NewSessionService(
		creds, auth, tenants,
		"test-secret", 15*time.Minute,
		observability.NewMetrics(), zap.NewNop(),
	)
}

func TestSession_StartsAnonymousWithoutToken(t *testing.T) {
	s := newSession(&memCreds{}, &mockAuth{}, &mockTenants{})

	snap := s.Snapshot()
	if snap.State != domain.StateAnonymous || snap.Authenticated {
		t.Errorf("expected anonymous session, got %+v", snap)
	}
}

func TestSession_StartsAuthenticatedWithPersistedToken(t *testing.T) {
	creds := &memCreds{token: "persisted"}
	s := newSession(creds, &mockAuth{}, &mockTenants{})

	snap := s.Snapshot()
	if snap.State != domain.StateAuthenticated || !snap.Authenticated {
		t.Errorf("expected authenticated session, got %+v", snap)
	}
}

func TestSession_LoginSuccessPersistsToken(t *testing.T) {
	creds := &memCreds{}
	tenants := &mockTenants{}
	s := newSession(creds, &mockAuth{token: "abc"}, tenants)

	result, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}

	if creds.Token() != "abc" {
		t.Errorf("expected token 'abc' persisted, got %q", creds.Token())
	}
	if s.State() != domain.StateAuthenticated {
		t.Errorf("expected authenticated state, got %s", s.State())
	}
	if result.AccessToken == "" {
		t.Error("expected a gateway access token")
	}
	if len(tenants.tokenEvents) != 1 || tenants.tokenEvents[0] != "abc" {
		t.Errorf("expected tenant notification for 'abc', got %v", tenants.tokenEvents)
	}
}

func TestSession_LoginFailureLeavesUnauthenticated(t *testing.T) {
	creds := &memCreds{}
	loginErr := &domain.ErrUnauthorized{Message: "Wrong email or password."}
	s := newSession(creds, &mockAuth{err: loginErr}, &mockTenants{})

	_, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	snap := s.Snapshot()
	if snap.State != domain.StateFailed {
		t.Errorf("expected failed state, got %s", snap.State)
	}
	if snap.Authenticated {
		t.Error("failed login must not authenticate")
	}
	if snap.Error != "Wrong email or password." {
		t.Errorf("expected error message retained, got %q", snap.Error)
	}
	if creds.Token() != "" {
		t.Errorf("no token may be persisted on failure, got %q", creds.Token())
	}
}

func TestSession_FailedLoginCanBeRetried(t *testing.T) {
	creds := &memCreds{}
	auth := &mockAuth{err: &domain.ErrUnauthorized{Message: "nope"}}
	s := newSession(creds, auth, &mockTenants{})

	req := &domain.LoginRequest{Email: "admin@example.com", Password: "pw"}
	if _, err := s.Login(context.Background(), req); err == nil {
		t.Fatal("expected first login to fail")
	}

	auth.err = nil
	auth.token = "second-try"
	if _, err := s.Login(context.Background(), req); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if creds.Token() != "second-try" {
		t.Errorf("expected token from retry, got %q", creds.Token())
	}
}

func TestSession_LoginValidatesInput(t *testing.T) {
	s := newSession(&memCreds{}, &mockAuth{token: "abc"}, &mockTenants{})

	_, err := s.Login(context.Background(), &domain.LoginRequest{Password: "pw"})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for missing email, got %v", err)
	}

	_, err = s.Login(context.Background(), &domain.LoginRequest{Email: "a@b.c"})
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for missing password, got %v", err)
	}
}

func TestSession_LogoutClearsEverything(t *testing.T) {
	creds := &memCreds{token: "abc", websiteName: "My Site"}
	tenants := &mockTenants{}
	s := newSession(creds, &mockAuth{}, tenants)

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if creds.Token() != "" {
		t.Errorf("expected token cleared, got %q", creds.Token())
	}
	if s.State() != domain.StateAnonymous {
		t.Errorf("expected anonymous state, got %s", s.State())
	}
	if tenants.resets != 1 {
		t.Errorf("expected tenant reset, got %d", tenants.resets)
	}
}

func TestSession_ReinitializeFromPersistedToken(t *testing.T) {
	creds := &memCreds{}
	s := newSession(creds, &mockAuth{}, &mockTenants{})

	if s.Reinitialize() {
		t.Error("expected reinitialize to fail without token")
	}

	creds.SetToken("restored")
	if !s.Reinitialize() {
		t.Fatal("expected reinitialize to succeed with token")
	}
	if s.State() != domain.StateAuthenticated {
		t.Errorf("expected authenticated state, got %s", s.State())
	}
}

func TestSession_AccessTokenRoundTrip(t *testing.T) {
	s := newSession(&memCreds{}, &mockAuth{token: "abc"}, &mockTenants{})

	result, err := s.Login(context.Background(), &domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := s.ValidateAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("expected issued token to validate, got %v", err)
	}
	if claims.Sub != "admin@example.com" {
		t.Errorf("expected subject from login, got %q", claims.Sub)
	}
	if claims.Type != "access" {
		t.Errorf("expected access token type, got %q", claims.Type)
	}

	if _, err := s.ValidateAccessToken("garbage"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}
