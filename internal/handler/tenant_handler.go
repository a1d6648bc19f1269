package handler

import (
	"encoding/json"
	"net/http"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Website — GET /v1/website
// ============================================================

// getWebsiteHandler returns the tenant context. An idle context is
// loaded on demand; loading and errored states are reported as-is so
// the dashboard can render a placeholder or the error.
func getWebsiteHandler(tenants *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/website")
		defer span.End()

		if tenants.Status() == domain.TenantIdle {
			if _, err := tenants.Load(ctx, false); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}

		writeJSON(w, http.StatusOK, tenants.Snapshot())
	}
}

// ============================================================
// Refresh — POST /v1/website/refresh
// ============================================================

func refreshWebsiteHandler(tenants *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/website/refresh")
		defer span.End()

		if _, err := tenants.Refresh(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, tenants.Snapshot())
	}
}

// ============================================================
// Switcher — GET /v1/websites, PUT /v1/websites/current
// ============================================================

func listWebsitesHandler(tenants *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/websites")
		defer span.End()

		if _, err := tenants.EnsureLoaded(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"websites": tenants.Websites(),
		})
	}
}

func setCurrentWebsiteHandler(tenants *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "PUT /v1/websites/current")
		defer span.End()

		var req domain.SetCurrentWebsiteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := tenants.SetCurrent(req.WebsiteID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, tenants.Snapshot())
	}
}

// ============================================================
// Customers — GET /v1/customers
// ============================================================

func listCustomersHandler(tenants *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/customers")
		defer span.End()

		typeFilter := r.URL.Query().Get("type")
		query := r.URL.Query().Get("q")

		customers, err := tenants.Customers(ctx, typeFilter, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"customers": customers,
			"total":     len(customers),
		})
	}
}

// ============================================================
// Metrics snapshot — GET /v1/metrics/session
// ============================================================

func sessionMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSessionSnapshot())
	}
}
