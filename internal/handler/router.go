// Package handler wires the HTTP surface of the dashboard gateway.
package handler

import (
	"net/http"

	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router needs.
type Services struct {
	Sessions *service.SessionService
	Tenants  *service.TenantService
	Bookings *service.BookingService
	Orders   *service.OrderService
	Invoices *service.InvoiceService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Everything under /v1 except the login endpoint sits behind the
// session guard.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Sessions))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public: the login boundary.
		r.Post("/auth/login", loginHandler(svcs.Sessions, logger))

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(svcs.Sessions, logger))

			// Session
			r.Post("/auth/logout", logoutHandler(svcs.Sessions, logger))
			r.Get("/session", sessionHandler(svcs.Sessions))

			// Tenant context
			r.Get("/website", getWebsiteHandler(svcs.Tenants, logger))
			r.Post("/website/refresh", refreshWebsiteHandler(svcs.Tenants, logger))
			r.Post("/refresh", refreshWebsiteHandler(svcs.Tenants, logger))
			r.Get("/websites", listWebsitesHandler(svcs.Tenants, logger))
			r.Put("/websites/current", setCurrentWebsiteHandler(svcs.Tenants, logger))

			// Customers
			r.Get("/customers", listCustomersHandler(svcs.Tenants, logger))

			// Bookings
			r.Get("/bookings", listBookingsHandler(svcs.Bookings, logger))
			r.Post("/bookings", createBookingHandler(svcs.Bookings, logger))
			r.Put("/bookings/{bookingId}/status", updateBookingStatusHandler(svcs.Bookings, logger))

			// Orders
			r.Get("/orders", listOrdersHandler(svcs.Orders, logger))
			r.Get("/orders/{orderId}", getOrderHandler(svcs.Orders, logger))

			// Invoices
			r.Get("/invoices", listInvoicesHandler(svcs.Invoices, logger))
			r.Get("/invoices/{invoiceId}", getInvoiceHandler(svcs.Invoices, logger))
			r.Post("/invoices", createInvoiceHandler(svcs.Invoices, logger))

			// Metrics snapshot
			r.Get("/metrics/session", sessionMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"session": sessions.State(),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
