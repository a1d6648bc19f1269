package service

import (
	"context"
	"sync"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var orderTracer = otel.Tracer("service/order")

// OrderService serves placed orders. Read-only over an in-memory
// seeded store.
type OrderService struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	order  []string

	logger *zap.Logger
}

// NewOrderService creates an order service with seed data.
func NewOrderService(logger *zap.Logger) *OrderService {
	s := &OrderService{
		orders: make(map[string]*domain.Order),
		logger: logger,
	}
	for _, o := range seedOrders() {
		s.orders[o.ID] = o
		s.order = append(s.order, o.ID)
	}
	return s
}

// List returns all orders in insertion order.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	_, span := orderTracer.Start(ctx, "OrderService.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.orders[id])
	}
	return out, nil
}

// Get returns a single order by id.
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	_, span := orderTracer.Start(ctx, "OrderService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "order", ID: id}
	}
	copied := *o
	return &copied, nil
}

func seedOrders() []*domain.Order {
	base := time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)
	return []*domain.Order{
		{
			ID: "o-2001",
			ClientInfo: domain.Customer{
				ID:           "3",
				FullName:     "John Doe",
				PrimaryEmail: "john@example.com",
			},
			Products: []domain.Product{
				{ID: "p-1", Name: "Quarterly filing", Price: 180, Quantity: 1},
				{ID: "p-2", Name: "Expense report", Price: 45, Quantity: 2},
			},
			Total:       270,
			CreatedDate: base,
			Status:      "completed",
		},
		{
			ID: "o-2002",
			ClientInfo: domain.Customer{
				ID:           "8",
				FullName:     "Maria Santos",
				PrimaryEmail: "maria.santos@example.com",
			},
			Products: []domain.Product{
				{ID: "p-3", Name: "Annual statement", Price: 320, Quantity: 1},
			},
			Total:       320,
			CreatedDate: base.Add(72 * time.Hour),
			Status:      "processing",
		},
	}
}
