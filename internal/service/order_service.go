package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/queue"
	"github.com/iliyamo/shop-api/internal/repository"
)

const msgOrderNotFound = "Order not found."

// OrderService turns carts into orders and lets administrators move
// orders through their lifecycle.
type OrderService struct {
	orders OrderStore
	events queue.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewOrderService wires an OrderService.  events may be nil, in which
// case no events are published.
func NewOrderService(orders OrderStore, events queue.Publisher, log zerolog.Logger) *OrderService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &OrderService{
		orders: orders,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Place checks out the caller's cart: one Pending order per cart entry,
// and the cart is emptied in the same transaction.
func (s *OrderService) Place(ctx context.Context, p Principal) ([]model.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.PlaceFromCart(ctx, p.UserID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrCartEmpty) {
			return nil, validation("Your cart is empty")
		}
		return nil, internal(err)
	}
	s.log.Info().Uint64("user_id", p.UserID).Int("orders", len(orders)).Msg("cart checked out")
	s.publishPlaced(ctx, orders)
	return orders, nil
}

// ListMine returns the caller's orders.
func (s *OrderService) ListMine(ctx context.Context, p Principal) ([]model.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, internal(err)
	}
	return orders, nil
}

// CreateDirect places a single order for a product without going
// through the cart.  Only customers may do this and the order always
// starts Pending.
func (s *OrderService) CreateDirect(ctx context.Context, p Principal, productID uint64, qty int64) (*model.Order, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, validation("product is required")
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	o := &model.Order{
		UserID:    p.UserID,
		ProductID: &productID,
		Quantity:  uint32(qty),
		Status:    model.StatusPending,
		OrderedAt: s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgCartProductNotFound)
		}
		return nil, internal(err)
	}
	s.publishPlaced(ctx, []model.Order{*o})
	return o, nil
}

// ListAll returns every order.  Administrators only.
func (s *OrderService) ListAll(ctx context.Context, p Principal) ([]model.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return orders, nil
}

// Get returns one order.  Administrators only.
func (s *OrderService) Get(ctx context.Context, p Principal, id uint64) (*model.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *OrderService) get(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgOrderNotFound)
		}
		return nil, internal(err)
	}
	return o, nil
}

// UpdateStatus moves an order to status.  Setting the current status
// again is a no-op; any other move must follow the order lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, p Principal, id uint64, status string) (*model.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, validation(fmt.Sprintf("%q is not a valid choice.", status))
	}
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return o, nil
	}
	prev := o.Status
	if !prev.CanTransitionTo(next) {
		return nil, conflict(fmt.Sprintf("cannot change status from %s to %s", prev, next))
	}
	if err := s.orders.UpdateStatus(ctx, id, prev, next); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(msgOrderNotFound)
		case errors.Is(err, repository.ErrConflict):
			return nil, conflict("order status was changed by another request; reload and retry")
		}
		return nil, internal(err)
	}
	o.Status = next
	s.log.Info().Uint64("order_id", id).Str("from", string(prev)).Str("to", string(next)).
		Uint64("by", p.UserID).Msg("order status changed")

	ev := queue.OrderStatusChangedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		From:      string(prev),
		To:        string(next),
		ChangedAt: s.now(),
	}
	if err := s.events.OrderStatusChanged(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn().Err(err).Uint64("order_id", id).Msg("status event not published")
	}
	return o, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, orders []model.Order) {
	if len(orders) == 0 {
		return
	}
	ev := queue.OrderPlacedEvent{
		UserID:   orders[0].UserID,
		Username: orders[0].Username,
		PlacedAt: orders[0].OrderedAt,
	}
	for _, o := range orders {
		ev.OrderIDs = append(ev.OrderIDs, o.ID)
		ev.Items = append(ev.Items, queue.OrderItem{
			OrderID:     o.ID,
			ProductID:   o.ProductID,
			ProductName: o.ProductName,
			Quantity:    o.Quantity,
			UnitPrice:   o.UnitPrice.StringFixed(2),
		})
	}
	if err := s.events.OrderPlaced(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", ev.UserID).Msg("order event not published")
	}
}
