// Package service — SessionService owns the auth state machine against
// the upstream portal and issues the gateway's own access tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// TenantNotifier receives session lifecycle events. Implemented by
// TenantService; kept as an interface so the dependency runs one way.
type TenantNotifier interface {
	TokenChanged(token string)
	Reset()
}

// SessionService is the auth state machine:
// anonymous → authenticating → authenticated / failed. A failed login
// stays unauthenticated and may be retried. Logout is a full reset.
type SessionService struct {
	mu      sync.RWMutex
	state   domain.SessionState
	lastErr string
	email   string

	creds   port.CredentialStore
	auth    port.Authenticator
	tenants TenantNotifier
	metrics *observability.Metrics
	logger  *zap.Logger

	jwtSecret []byte
	accessTTL time.Duration
}

// NewSessionService creates the session service. A token already in the
// credential store means the session starts authenticated.
func NewSessionService(creds port.CredentialStore, auth port.Authenticator, tenants TenantNotifier, jwtSecret string, accessTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	s := &SessionService{
		state:     domain.StateAnonymous,
		creds:     creds,
		auth:      auth,
		tenants:   tenants,
		metrics:   metrics,
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
	}
	if creds.Token() != "" {
		s.state = domain.StateAuthenticated
	}
	return s
}

// Snapshot returns the current session state without the token.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{
		State:         s.state,
		Authenticated: s.state == domain.StateAuthenticated,
		Error:         s.lastErr,
	}
}

// State returns the current lifecycle state.
func (s *SessionService) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the upstream token from the credential store.
func (s *SessionService) Token() string {
	return s.creds.Token()
}

// Login authenticates against the upstream portal. On success the
// upstream token is persisted and a gateway access token is issued; the
// tenant context is told to reload.
func (s *SessionService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Login")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("login", time.Since(start)) }()

	if req.Email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if req.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "password is required"}
	}

	s.mu.Lock()
	s.state = domain.StateAuthenticating
	s.lastErr = ""
	s.mu.Unlock()

	token, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.mu.Lock()
		s.state = domain.StateFailed
		s.lastErr = err.Error()
		s.mu.Unlock()

		var upstream *domain.ErrUpstream
		var timeout *domain.ErrTimeout
		if errors.As(err, &upstream) || errors.As(err, &timeout) {
			s.metrics.IncrUpstreamError("api-login.php")
		}
		s.metrics.IncrLogin("failure")
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}

	if err := s.creds.SetToken(token); err != nil {
		s.mu.Lock()
		s.state = domain.StateFailed
		s.lastErr = err.Error()
		s.mu.Unlock()

		s.metrics.IncrLogin("failure")
		return nil, fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.state = domain.StateAuthenticated
	s.email = req.Email
	s.mu.Unlock()

	s.metrics.IncrLogin("success")
	s.logger.Info("login succeeded", zap.String("email", req.Email))

	// Kick off the tenant load; it runs against the new token.
	s.tenants.TokenChanged(token)

	accessToken, err := s.signAccessToken(req.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &domain.LoginResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout clears the persisted token, resets the session to anonymous
// and wipes the tenant context. It never calls the upstream.
func (s *SessionService) Logout(ctx context.Context) error {
	_, span := sessionTracer.Start(ctx, "SessionService.Logout")
	defer span.End()

	if err := s.creds.ClearToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}

	s.mu.Lock()
	s.state = domain.StateAnonymous
	s.lastErr = ""
	s.email = ""
	s.mu.Unlock()

	s.tenants.Reset()
	s.logger.Info("logged out")
	return nil
}

// Reinitialize re-derives the authenticated state from a persisted
// token, e.g. after a restart left the state machine anonymous while
// the credential store still holds a token. Returns true if the session
// is authenticated afterwards.
func (s *SessionService) Reinitialize() bool {
	if s.creds.Token() == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateAuthenticated {
		s.state = domain.StateAuthenticated
		s.lastErr = ""
	}
	return true
}

// JWTClaims represents the custom claims in gateway access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses and verifies a gateway access token.
func (s *SessionService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}

	return claims, nil
}

func (s *SessionService) signAccessToken(email string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  email,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "dashboard-bff",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
