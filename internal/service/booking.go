package service

import (
	"context"
	"sync"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var bookingTracer = otel.Tracer("service/booking")

// BookingService manages appointment bookings. The store is in-memory
// and seeded with sample rows; bookings do not survive a restart.
type BookingService struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	order    []string

	logger *zap.Logger
}

// NewBookingService creates a booking service with seed data.
func NewBookingService(logger *zap.Logger) *BookingService {
	s := &BookingService{
		bookings: make(map[string]*domain.Booking),
		logger:   logger,
	}
	for _, b := range seedBookings() {
		s.bookings[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	return s
}

// List returns bookings in insertion order, optionally filtered to a
// set of statuses.
func (s *BookingService) List(ctx context.Context, statuses []domain.BookingStatus) ([]domain.Booking, error) {
	_, span := bookingTracer.Start(ctx, "BookingService.List")
	defer span.End()

	for _, st := range statuses {
		if !domain.ValidBookingStatus(st) {
			return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(st)}
		}
	}

	wanted := make(map[domain.BookingStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0, len(s.order))
	for _, id := range s.order {
		b := s.bookings[id]
		if len(wanted) > 0 && !wanted[b.Status] {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

// Create adds a new booking in the Pending status.
func (s *BookingService) Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	_, span := bookingTracer.Start(ctx, "BookingService.Create")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if req.Service == "" {
		return nil, &domain.ErrValidation{Field: "service", Message: "service is required"}
	}
	if req.Email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}

	b := &domain.Booking{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Service:     req.Service,
		Email:       req.Email,
		Phone:       req.Phone,
		AppDate:     req.AppDate,
		CreatedDate: time.Now().UTC(),
		Status:      domain.BookingPending,
	}

	s.mu.Lock()
	s.bookings[b.ID] = b
	s.order = append(s.order, b.ID)
	s.mu.Unlock()

	span.SetAttributes(attribute.String("booking.id", b.ID))
	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("service", b.Service),
	)

	return b, nil
}

// UpdateStatus moves a booking to a new status.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	_, span := bookingTracer.Start(ctx, "BookingService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", id))

	if !domain.ValidBookingStatus(status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "booking", ID: id}
	}

	b.Status = status
	s.logger.Info("booking status updated",
		zap.String("booking_id", id),
		zap.String("status", string(status)),
	)

	copied := *b
	return &copied, nil
}

func seedBookings() []*domain.Booking {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return []*domain.Booking{
		{
			ID:          "b-1001",
			Name:        "Sarah Mitchell",
			Service:     "Tax consultation",
			Email:       "sarah.mitchell@example.com",
			Phone:       "555-0134",
			AppDate:     "2025-06-10",
			CreatedDate: base,
			Status:      domain.BookingPending,
		},
		{
			ID:          "b-1002",
			Name:        "David Okafor",
			Service:     "Bookkeeping review",
			Email:       "d.okafor@example.com",
			Phone:       "555-0178",
			AppDate:     "2025-06-12",
			CreatedDate: base.Add(26 * time.Hour),
			Status:      domain.BookingApproved,
		},
		{
			ID:          "b-1003",
			Name:        "Lena Fischer",
			Service:     "Payroll setup",
			Email:       "lena.fischer@example.com",
			Phone:       "555-0112",
			AppDate:     "2025-06-05",
			CreatedDate: base.Add(50 * time.Hour),
			Status:      domain.BookingPaid,
		},
	}
}
