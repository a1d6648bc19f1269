package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var invoiceTracer = otel.Tracer("service/invoice")

// InvoiceService manages invoices and quotes. Totals are always
// computed from the line items; amounts sent by the client are ignored.
type InvoiceService struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
	order    []string
	nextNum  int

	logger *zap.Logger
}

// NewInvoiceService creates an invoice service with seed data.
func NewInvoiceService(logger *zap.Logger) *InvoiceService {
	s := &InvoiceService{
		invoices: make(map[string]*domain.Invoice),
		nextNum:  1001,
		logger:   logger,
	}
	for _, inv := range seedInvoices() {
		s.invoices[inv.ID] = inv
		s.order = append(s.order, inv.ID)
		if inv.Number >= s.nextNum {
			s.nextNum = inv.Number + 1
		}
	}
	return s
}

// List returns all invoices in insertion order.
func (s *InvoiceService) List(ctx context.Context) ([]domain.Invoice, error) {
	_, span := invoiceTracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Invoice, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.invoices[id])
	}
	return out, nil
}

// Get returns a single invoice by id.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	_, span := invoiceTracer.Start(ctx, "InvoiceService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: id}
	}
	copied := *inv
	return &copied, nil
}

// Create builds an invoice from the request, computing subtotal, tax,
// discount, adjustment, total and balance server-side.
func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	_, span := invoiceTracer.Start(ctx, "InvoiceService.Create")
	defer span.End()

	if req.Type != domain.InvoiceTypeInvoice && req.Type != domain.InvoiceTypeQuote {
		return nil, &domain.ErrValidation{Field: "type", Message: "type must be 'invoice' or 'quote'"}
	}
	if len(req.Products) == 0 {
		return nil, &domain.ErrValidation{Field: "products", Message: "at least one product is required"}
	}
	if req.TaxPercentage < 0 || req.DiscountPercentage < 0 {
		return nil, &domain.ErrValidation{Field: "percentages", Message: "percentages must not be negative"}
	}

	products := make([]domain.InvoiceProduct, 0, len(req.Products))
	subtotal := 0.0
	for _, p := range req.Products {
		if p.Quantity <= 0 {
			return nil, &domain.ErrValidation{Field: "products", Message: "quantity must be positive"}
		}
		if p.Price < 0 {
			return nil, &domain.ErrValidation{Field: "products", Message: "price must not be negative"}
		}
		amount := round2(p.Price * float64(p.Quantity))
		subtotal += amount
		products = append(products, domain.InvoiceProduct{
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
			Amount:   amount,
		})
	}
	subtotal = round2(subtotal)

	tax := round2(subtotal * req.TaxPercentage / 100)
	discount := round2(subtotal * req.DiscountPercentage / 100)
	total := round2(subtotal + tax - discount + req.Adjustment)

	s.mu.Lock()
	inv := &domain.Invoice{
		ID:                 uuid.NewString(),
		Number:             s.nextNum,
		Type:               req.Type,
		ClientInfo:         req.ClientInfo,
		Products:           products,
		Subtotal:           subtotal,
		TaxPercentage:      req.TaxPercentage,
		Tax:                tax,
		DiscountPercentage: req.DiscountPercentage,
		Discount:           discount,
		Adjustment:         req.Adjustment,
		Total:              total,
		Balance:            total,
		DueDate:            req.DueDate,
		CreatedDate:        time.Now().UTC(),
		Notes:              req.Notes,
	}
	s.nextNum++
	s.invoices[inv.ID] = inv
	s.order = append(s.order, inv.ID)
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("invoice.id", inv.ID),
		attribute.Int("invoice.number", inv.Number),
	)
	s.logger.Info("invoice created",
		zap.String("invoice_id", inv.ID),
		zap.Int("number", inv.Number),
		zap.String("type", string(inv.Type)),
		zap.Float64("total", inv.Total),
	)

	return inv, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func seedInvoices() []*domain.Invoice {
	created := time.Date(2025, 5, 28, 10, 0, 0, 0, time.UTC)
	return []*domain.Invoice{
		{
			ID:     "i-3001",
			Number: 1001,
			Type:   domain.InvoiceTypeInvoice,
			ClientInfo: domain.Customer{
				ID:           "3",
				FullName:     "John Doe",
				PrimaryEmail: "john@example.com",
			},
			Products: []domain.InvoiceProduct{
				{Name: "Monthly bookkeeping", Price: 250, Quantity: 1, Amount: 250},
			},
			Subtotal:      250,
			TaxPercentage: 10,
			Tax:           25,
			Total:         275,
			Balance:       275,
			DueDate:       "2025-06-27",
			CreatedDate:   created,
		},
	}
}
