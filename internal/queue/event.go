// Package queue defines the order events exchanged over the message broker,
// the publisher used by the order service and the consumer that records
// them in the order log.
package queue

import (
    "encoding/json"
    "time"
)

// Event types carried in Envelope.Type.
const (
    TypeOrderPlaced        = "order.placed"
    TypeOrderStatusChanged = "order.status_changed"
)

// Envelope is the wire format of every message on the orders queue.  Data
// holds the event-specific payload and is decoded according to Type.
type Envelope struct {
    Type string          `json:"type"`
    Data json.RawMessage `json:"data"`
}

// OrderItem describes one order created by a checkout or direct order.
type OrderItem struct {
    OrderID     uint64  `json:"order_id"`
    ProductID   *uint64 `json:"product_id"`
    ProductName string  `json:"product_name"`
    Quantity    uint32  `json:"quantity"`
    UnitPrice   string  `json:"unit_price"`
}

// OrderPlacedEvent is published once per checkout (or direct order) after
// the orders are committed.
type OrderPlacedEvent struct {
    OrderIDs []uint64    `json:"order_ids"`
    UserID   uint64      `json:"user_id"`
    Username string      `json:"username"`
    Items    []OrderItem `json:"items"`
    PlacedAt time.Time   `json:"placed_at"`
}

// OrderStatusChangedEvent is published when an administrator moves an
// order to a new status.
type OrderStatusChangedEvent struct {
    OrderID   uint64    `json:"order_id"`
    UserID    uint64    `json:"user_id"`
    From      string    `json:"from"`
    To        string    `json:"to"`
    ChangedAt time.Time `json:"changed_at"`
}

func encode(eventType string, data any) ([]byte, error) {
    raw, err := json.Marshal(data)
    if err != nil {
        return nil, err
    }
    return json.Marshal(Envelope{Type: eventType, Data: raw})
}
