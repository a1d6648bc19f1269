package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

func TestBooking_ListAll(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	bookings, err := s.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bookings) == 0 {
		t.Fatal("expected seeded bookings")
	}
}

func TestBooking_ListFiltersByStatus(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	pending, err := s.List(context.Background(), []domain.BookingStatus{domain.BookingPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, b := range pending {
		if b.Status != domain.BookingPending {
			t.Errorf("expected only pending bookings, got %s", b.Status)
		}
	}

	multi, err := s.List(context.Background(), []domain.BookingStatus{
		domain.BookingPending, domain.BookingApproved,
	})
	if err != nil {
		t.Fatalf("list multi: %v", err)
	}
	if len(multi) < len(pending) {
		t.Error("multi-status filter must be a superset of single-status")
	}
}

func TestBooking_ListRejectsUnknownStatus(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	_, err := s.List(context.Background(), []domain.BookingStatus{"Bogus"})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBooking_CreateStartsPending(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	b, err := s.Create(context.Background(), &domain.CreateBookingRequest{
		Name:    "New Client",
		Service: "Consultation",
		Email:   "new@example.com",
		Phone:   "555-0000",
		AppDate: "2025-07-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" {
		t.Error("expected generated id")
	}
	if b.Status != domain.BookingPending {
		t.Errorf("expected pending status, got %s", b.Status)
	}

	all, _ := s.List(context.Background(), nil)
	if all[len(all)-1].ID != b.ID {
		t.Error("expected new booking at the end of the list")
	}
}

func TestBooking_CreateValidates(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	_, err := s.Create(context.Background(), &domain.CreateBookingRequest{
		Service: "Consultation",
		Email:   "a@b.c",
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for missing name, got %v", err)
	}
}

func TestBooking_UpdateStatus(t *testing.T) {
	s := service.NewBookingService(zap.NewNop())

	updated, err := s.UpdateStatus(context.Background(), "b-1001", domain.BookingApproved)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.BookingApproved {
		t.Errorf("expected approved status, got %s", updated.Status)
	}

	_, err = s.UpdateStatus(context.Background(), "b-1001", "Bogus")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Errorf("expected ErrValidation for bad status, got %v", err)
	}

	_, err = s.UpdateStatus(context.Background(), "missing", domain.BookingPaid)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
