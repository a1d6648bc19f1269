package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tenantTracer = otel.Tracer("service/tenant")

// TenantSnapshot is the tenant context as handlers see it.
type TenantSnapshot struct {
	Status    domain.TenantStatus `json:"status"`
	Error     string              `json:"error,omitempty"`
	Website   *domain.Website     `json:"website,omitempty"`
	Websites  []domain.WebsiteRef `json:"websites"`
	CurrentID string              `json:"current_website_id,omitempty"`

	// LastKnownName is the persisted display name, available before the
	// first load completes.
	LastKnownName string `json:"last_known_name,omitempty"`
}

// TenantService holds the loaded website, the switcher list and the
// loader status (idle → loading → loaded/errored). Loads replace state
// wholesale; they never merge. A generation counter plus singleflight
// guarantees at most one effective in-flight load per token and that
// stale results are discarded.
type TenantService struct {
	mu        sync.RWMutex
	status    domain.TenantStatus
	website   *domain.Website
	refs      []domain.WebsiteRef
	currentID string
	lastErr   string

	gen   atomic.Uint64
	group singleflight.Group

	fetcher     port.TenantFetcher
	creds       port.CredentialStore
	cache       port.Cache[domain.TenantData]
	metrics     *observability.Metrics
	logger      *zap.Logger
	loadTimeout time.Duration
}

// NewTenantService creates the tenant service in the idle state.
func NewTenantService(fetcher port.TenantFetcher, creds port.CredentialStore, cache port.Cache[domain.TenantData], loadTimeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *TenantService {
	return &TenantService{
		status:      domain.TenantIdle,
		fetcher:     fetcher,
		creds:       creds,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		loadTimeout: loadTimeout,
	}
}

// Snapshot returns the current tenant context.
func (s *TenantService) Snapshot() TenantSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]domain.WebsiteRef, len(s.refs))
	copy(refs, s.refs)

	return TenantSnapshot{
		Status:        s.status,
		Error:         s.lastErr,
		Website:       s.website,
		Websites:      refs,
		CurrentID:     s.currentID,
		LastKnownName: s.creds.WebsiteName(),
	}
}

// Status returns the loader status.
func (s *TenantService) Status() domain.TenantStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// TokenChanged wipes the tenant context and starts a background load
// for the new token. Implements TenantNotifier.
func (s *TenantService) TokenChanged(token string) {
	s.gen.Add(1)

	s.mu.Lock()
	s.status = domain.TenantLoading
	s.website = nil
	s.refs = nil
	s.currentID = ""
	s.lastErr = ""
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
		defer cancel()
		if _, err := s.Load(ctx, true); err != nil {
			s.logger.Warn("background tenant load failed", zap.Error(err))
		}
	}()
}

// Reset clears everything back to idle. Implements TenantNotifier;
// wired to logout.
func (s *TenantService) Reset() {
	s.gen.Add(1)
	s.cache.Flush()

	s.mu.Lock()
	s.status = domain.TenantIdle
	s.website = nil
	s.refs = nil
	s.currentID = ""
	s.lastErr = ""
	s.mu.Unlock()
}

// Load fetches the tenant data for the current token. With force=false
// the TTL cache is consulted first; force=true bypasses and evicts it.
// Concurrent loads for the same token are collapsed, and a result is
// only applied if no reset or token change happened in between.
func (s *TenantService) Load(ctx context.Context, force bool) (*domain.TenantData, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Load")
	defer span.End()
	span.SetAttributes(attribute.Bool("force", force))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("tenant_load", time.Since(start)) }()

	token := s.creds.Token()
	if token == "" {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}

	gen := s.gen.Load()

	if force {
		s.cache.Delete(token)
	} else {
		if data, ok := s.cache.Get(token); ok {
			s.metrics.IncrCacheHit("tenant")
			s.applyResult(gen, token, &data, nil)
			return &data, nil
		}
		s.metrics.IncrCacheMiss("tenant")
	}

	s.mu.Lock()
	s.status = domain.TenantLoading
	s.lastErr = ""
	s.mu.Unlock()

	v, err, _ := s.group.Do(token, func() (any, error) {
		site, refs, err := s.fetcher.FetchWebsite(ctx, token)
		if err != nil {
			return nil, err
		}
		return &domain.TenantData{Website: site, Websites: refs}, nil
	})
	if err != nil {
		var upstream *domain.ErrUpstream
		var timeout *domain.ErrTimeout
		if errors.As(err, &upstream) || errors.As(err, &timeout) {
			s.metrics.IncrUpstreamError("api-test.php")
		}
		s.metrics.IncrTenantLoad("failure")
		s.applyResult(gen, token, nil, err)
		return nil, err
	}

	data := v.(*domain.TenantData)
	s.metrics.IncrTenantLoad("success")
	s.cache.Set(token, *data)
	s.applyResult(gen, token, data, nil)

	return data, nil
}

// applyResult installs a load result unless it is stale: a reset or a
// token change since the load started makes the result worthless.
func (s *TenantService) applyResult(gen uint64, token string, data *domain.TenantData, loadErr error) {
	if s.gen.Load() != gen || s.creds.Token() != token {
		s.metrics.IncrTenantLoad("stale")
		s.logger.Debug("discarding stale tenant load")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if loadErr != nil {
		s.status = domain.TenantErrored
		s.lastErr = loadErr.Error()
		return
	}

	s.status = domain.TenantLoaded
	s.lastErr = ""
	s.website = data.Website
	s.refs = data.Websites
	s.currentID = data.Website.ID
}

// Refresh forces a reload, bypassing the cache.
func (s *TenantService) Refresh(ctx context.Context) (*domain.TenantData, error) {
	return s.Load(ctx, true)
}

// EnsureLoaded returns the loaded website, loading it first if needed.
func (s *TenantService) EnsureLoaded(ctx context.Context) (*domain.Website, error) {
	s.mu.RLock()
	status, site := s.status, s.website
	s.mu.RUnlock()

	if status == domain.TenantLoaded && site != nil {
		return site, nil
	}

	data, err := s.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	return data.Website, nil
}

// Websites returns the switcher list.
func (s *TenantService) Websites() []domain.WebsiteRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]domain.WebsiteRef, len(s.refs))
	copy(refs, s.refs)
	return refs
}

// SetCurrent switches the active website by id. Ids are compared as
// strings. The target must be the loaded website or one of the
// switcher entries.
func (s *TenantService) SetCurrent(id string) error {
	if id == "" {
		return &domain.ErrValidation{Field: "website_id", Message: "website_id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.website != nil && s.website.ID == id {
		s.currentID = id
		return nil
	}
	for _, r := range s.refs {
		if r.ID == id {
			s.currentID = id
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "website", ID: id}
}

// Customers returns the loaded website's customer list, optionally
// filtered by type and by a case-insensitive name/email query.
func (s *TenantService) Customers(ctx context.Context, typeFilter, query string) ([]domain.Customer, error) {
	ctx, span := tenantTracer.Start(ctx, "TenantService.Customers")
	defer span.End()

	site, err := s.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Customer, 0, len(site.Customers))
	for _, c := range site.Customers {
		if typeFilter != "" && !strings.EqualFold(c.Type, typeFilter) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.FullName), query) &&
			!strings.Contains(strings.ToLower(c.PrimaryEmail), query) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
