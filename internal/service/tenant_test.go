package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/cache"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// mockFetcher returns canned tenant data, optionally blocking until
// released so tests can interleave resets with in-flight loads.
type mockFetcher struct {
	mu      sync.Mutex
	site    *domain.Website
	refs    []domain.WebsiteRef
	err     error
	calls   int
	blockCh chan struct{}
}

func (m *mockFetcher) FetchWebsite(ctx context.Context, token string) (*domain.Website, []domain.WebsiteRef, error) {
	m.mu.Lock()
	m.calls++
	block := m.blockCh
	site, refs, err := m.site, m.refs, m.err
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, nil, err
	}
	return site, refs, nil
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testSite() *domain.Website {
	return &domain.Website{
		ID:     "7",
		Name:   "Acme Portal",
		Domain: "acme.example.com",
		Customers: []domain.Customer{
			{ID: "3", FullName: "John Doe", PrimaryEmail: "john@example.com", Type: "client"},
			{ID: "1", FullName: "Jane Roe", PrimaryEmail: "jane@example.com", Type: "private"},
		},
	}
}

func testRefs() []domain.WebsiteRef {
	return []domain.WebsiteRef{
		{ID: "7", Name: "Acme Portal"},
		{ID: "9", Name: "Second Site"},
	}
}

func newTenant(creds *memCreds, fetcher *mockFetcher) *service.TenantService {
	c := cache.New[domain.TenantData](time.Minute)
	return service.NewTenantService(
		fetcher, creds, c, 5*time.Second,
		observability.NewMetrics(), zap.NewNop(),
	)
}

func TestTenant_StartsIdle(t *testing.T) {
	s := newTenant(&memCreds{}, &mockFetcher{})

	if s.Status() != domain.TenantIdle {
		t.Errorf("expected idle status, got %s", s.Status())
	}
}

func TestTenant_LoadWithoutTokenFails(t *testing.T) {
	s := newTenant(&memCreds{}, &mockFetcher{})

	_, err := s.Load(context.Background(), false)
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTenant_LoadAppliesWholesale(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	s := newTenant(creds, &mockFetcher{site: testSite(), refs: testRefs()})

	data, err := s.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data.Website.ID != "7" {
		t.Errorf("expected website '7', got %q", data.Website.ID)
	}

	snap := s.Snapshot()
	if snap.Status != domain.TenantLoaded {
		t.Errorf("expected loaded status, got %s", snap.Status)
	}
	if snap.CurrentID != "7" {
		t.Errorf("expected current website '7', got %q", snap.CurrentID)
	}
	if len(snap.Websites) != 2 {
		t.Errorf("expected 2 switcher entries, got %d", len(snap.Websites))
	}
}

func TestTenant_LoadErrorSetsErroredStatus(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	fetcher := &mockFetcher{err: &domain.ErrUpstream{Endpoint: "api-test.php", Status: 500}}
	s := newTenant(creds, fetcher)

	_, err := s.Load(context.Background(), false)
	if err == nil {
		t.Fatal("expected load error")
	}

	snap := s.Snapshot()
	if snap.Status != domain.TenantErrored {
		t.Errorf("expected errored status, got %s", snap.Status)
	}
	if snap.Error != "HTTP error! status: 500" {
		t.Errorf("expected upstream message retained, got %q", snap.Error)
	}
}

func TestTenant_SecondLoadHitsCache(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	fetcher := &mockFetcher{site: testSite(), refs: testRefs()}
	s := newTenant(creds, fetcher)

	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatalf("second load: %v", err)
	}

	if fetcher.callCount() != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", fetcher.callCount())
	}
}

func TestTenant_RefreshBypassesCache(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	fetcher := &mockFetcher{site: testSite(), refs: testRefs()}
	s := newTenant(creds, fetcher)

	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if fetcher.callCount() != 2 {
		t.Errorf("expected refresh to hit upstream again, got %d calls", fetcher.callCount())
	}
}

func TestTenant_ResetDiscardsInFlightLoad(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	block := make(chan struct{})
	fetcher := &mockFetcher{site: testSite(), refs: testRefs(), blockCh: block}
	s := newTenant(creds, fetcher)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Load(context.Background(), false)
	}()

	// Wait for the fetch to be in flight, then reset underneath it.
	deadline := time.After(2 * time.Second)
	for fetcher.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("fetch never started")
		case <-time.After(time.Millisecond):
		}
	}

	s.Reset()
	creds.ClearToken()
	close(block)
	<-done

	snap := s.Snapshot()
	if snap.Status != domain.TenantIdle {
		t.Errorf("stale load must not apply after reset, got status %s", snap.Status)
	}
	if snap.Website != nil {
		t.Error("stale load must not install a website")
	}
}

func TestTenant_ResetClearsEverything(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	s := newTenant(creds, &mockFetcher{site: testSite(), refs: testRefs()})

	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatalf("load: %v", err)
	}

	s.Reset()

	snap := s.Snapshot()
	if snap.Status != domain.TenantIdle || snap.Website != nil ||
		len(snap.Websites) != 0 || snap.CurrentID != "" || snap.Error != "" {
		t.Errorf("expected empty idle snapshot after reset, got %+v", snap)
	}
}

func TestTenant_SetCurrent(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	s := newTenant(creds, &mockFetcher{site: testSite(), refs: testRefs()})

	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.SetCurrent("9"); err != nil {
		t.Fatalf("expected switch to listed website, got %v", err)
	}
	if got := s.Snapshot().CurrentID; got != "9" {
		t.Errorf("expected current '9', got %q", got)
	}

	err := s.SetCurrent("404")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}

	err = s.SetCurrent("")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("expected ErrValidation for empty id, got %v", err)
	}
}

func TestTenant_CustomersFilters(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	s := newTenant(creds, &mockFetcher{site: testSite(), refs: testRefs()})

	all, err := s.Customers(context.Background(), "", "")
	if err != nil {
		t.Fatalf("customers: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(all))
	}

	clients, err := s.Customers(context.Background(), "client", "")
	if err != nil {
		t.Fatalf("customers by type: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != "3" {
		t.Errorf("expected only the client-typed customer, got %+v", clients)
	}

	byName, err := s.Customers(context.Background(), "", "jane")
	if err != nil {
		t.Fatalf("customers by query: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != "1" {
		t.Errorf("expected query to match Jane, got %+v", byName)
	}
}

func TestTenant_TokenChangedTriggersBackgroundLoad(t *testing.T) {
	creds := &memCreds{token: "tok-1"}
	fetcher := &mockFetcher{site: testSite(), refs: testRefs()}
	s := newTenant(creds, fetcher)

	s.TokenChanged("tok-1")

	deadline := time.After(2 * time.Second)
	for s.Status() != domain.TenantLoaded {
		select {
		case <-deadline:
			t.Fatalf("background load never completed, status %s", s.Status())
		case <-time.After(time.Millisecond):
		}
	}

	if got := s.Snapshot().Website.ID; got != "7" {
		t.Errorf("expected loaded website, got %q", got)
	}
}
