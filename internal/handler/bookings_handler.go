package handler

import (
	"encoding/json"
	"net/http"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Bookings — GET /v1/bookings, POST /v1/bookings,
//            PUT /v1/bookings/{bookingId}/status
// ============================================================

func listBookingsHandler(bookings *service.BookingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bookings")
		defer span.End()

		result, err := bookings.List(ctx, parseStatusFilter(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"bookings": result,
			"total":    len(result),
		})
	}
}

func createBookingHandler(bookings *service.BookingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bookings")
		defer span.End()

		var req domain.CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		b, err := bookings.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBookingStatusHandler(bookings *service.BookingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/bookings/{bookingId}/status")
		defer span.End()

		bookingID := chi.URLParam(r, "bookingId")

		var req domain.UpdateBookingStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		b, err := bookings.UpdateStatus(ctx, bookingID, req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, b)
	}
}
