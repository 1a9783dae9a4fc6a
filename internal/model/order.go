package model

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
    StatusPending   OrderStatus = "Pending"
    StatusProcessed OrderStatus = "Processed"
    StatusShipped   OrderStatus = "Shipped"
    StatusDelivered OrderStatus = "Delivered"
    StatusCancelled OrderStatus = "Cancelled"
)

// transitions lists the allowed next states for each status.  Delivered
// and Cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
    StatusPending:   {StatusProcessed, StatusCancelled},
    StatusProcessed: {StatusShipped, StatusCancelled},
    StatusShipped:   {StatusDelivered},
    StatusDelivered: nil,
    StatusCancelled: nil,
}

// ParseOrderStatus reports whether s is one of the enumerated statuses.
// Matching is exact, as stored.
func ParseOrderStatus(s string) (OrderStatus, bool) {
    st := OrderStatus(s)
    _, ok := transitions[st]
    return st, ok
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same state is not a transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
    for _, n := range transitions[s] {
        if n == next {
            return true
        }
    }
    return false
}

// Order mirrors a row in `orders`.  ProductName and UnitPrice are a
// snapshot taken when the order was created, so the order stays readable
// after the product is deleted (ProductID then becomes nil).  Username is
// not stored on the row; it is joined in for display.
type Order struct {
    ID          uint64          // orders.id
    UserID      uint64          // orders.user_id
    Username    string          // users.username (joined)
    ProductID   *uint64         // orders.product_id (NULL once the product is deleted)
    ProductName string          // orders.product_name
    UnitPrice   Money           // orders.unit_price
    Quantity    uint32          // orders.quantity
    Status      OrderStatus     // orders.status
    OrderedAt   time.Time       // orders.ordered_at
}

// OrderView is the display rendering of an order: the user and product
// are shown by name instead of by id.
type OrderView struct {
    ID        uint64      `json:"id"`
    User      string      `json:"user"`
    Product   string      `json:"product"`
    Quantity  uint32      `json:"quantity"`
    OrderedAt time.Time   `json:"ordered_at"`
    Status    OrderStatus `json:"status"`
}

// OrderRecord is the full order record returned to administrators.
type OrderRecord struct {
    ID          uint64          `json:"id"`
    User        uint64          `json:"user"`
    Product     *uint64         `json:"product"`
    ProductName string          `json:"product_name"`
    UnitPrice   Money           `json:"unit_price"`
    Quantity    uint32          `json:"quantity"`
    OrderedAt   time.Time       `json:"ordered_at"`
    Status      OrderStatus     `json:"status"`
}

// View renders o for display.
func (o *Order) View() OrderView {
    return OrderView{
        ID:        o.ID,
        User:      o.Username,
        Product:   o.ProductName,
        Quantity:  o.Quantity,
        OrderedAt: o.OrderedAt,
        Status:    o.Status,
    }
}

// Record renders o as the full administrative record.
func (o *Order) Record() OrderRecord {
    return OrderRecord{
        ID:          o.ID,
        User:        o.UserID,
        Product:     o.ProductID,
        ProductName: o.ProductName,
        UnitPrice:   o.UnitPrice,
        Quantity:    o.Quantity,
        OrderedAt:   o.OrderedAt,
        Status:      o.Status,
    }
}

// Views renders a slice of orders for display.  A nil input yields an
// empty, non-nil slice so JSON encodes it as [].
func Views(orders []Order) []OrderView {
    out := make([]OrderView, 0, len(orders))
    for i := range orders {
        out = append(out, orders[i].View())
    }
    return out
}
