package domain

// SessionState is the lifecycle of the gateway's upstream session.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
	StateFailed         SessionState = "failed"
)

// Session is a snapshot of the auth state machine, safe to hand to
// handlers without exposing the upstream token.
type Session struct {
	State         SessionState `json:"state"`
	Authenticated bool         `json:"authenticated"`
	Error         string       `json:"error,omitempty"`
}

// LoginResult is returned to the dashboard on a successful login.
// AccessToken is the gateway's own JWT, not the upstream token.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TenantStatus is the loader status of the tenant context.
type TenantStatus string

const (
	TenantIdle    TenantStatus = "idle"
	TenantLoading TenantStatus = "loading"
	TenantLoaded  TenantStatus = "loaded"
	TenantErrored TenantStatus = "errored"
)
