// Package port defines the interfaces between services and adapters.
package port

import (
	"context"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
)

// CredentialStore persists the upstream bearer token and the last-seen
// website name across restarts. Implementations must be safe for
// concurrent use.
type CredentialStore interface {
	Token() string
	SetToken(token string) error
	ClearToken() error
	WebsiteName() string
	SetWebsiteName(name string) error
}

// Authenticator exchanges dashboard credentials for an upstream token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (token string, err error)
}

// TenantFetcher loads the active website and the switcher list from
// the upstream portal API.
type TenantFetcher interface {
	FetchWebsite(ctx context.Context, token string) (*domain.Website, []domain.WebsiteRef, error)
}

// Cache is a generic TTL cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Flush()
}
