package queue

import (
    "context"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// publishTimeout bounds a single publish, dial included.
const publishTimeout = 3 * time.Second

// Publisher sends order events to the broker.  Implementations must be
// safe for concurrent use.
type Publisher interface {
    OrderPlaced(ctx context.Context, ev OrderPlacedEvent) error
    OrderStatusChanged(ctx context.Context, ev OrderStatusChangedEvent) error
}

// AMQPPublisher publishes persistent JSON messages to a durable queue on
// the default exchange.  It opens a connection per publish, which keeps it
// free of reconnect state at the cost of a dial per event.
type AMQPPublisher struct {
    URL   string
    Queue string
    Log   zerolog.Logger
}

// NewAMQPPublisher returns a publisher for the given broker and queue.
func NewAMQPPublisher(url, queue string, log zerolog.Logger) *AMQPPublisher {
    return &AMQPPublisher{URL: url, Queue: queue, Log: log.With().Str("component", "order-publisher").Logger()}
}

// OrderPlaced publishes an order.placed event.
func (p *AMQPPublisher) OrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
    return p.publish(ctx, TypeOrderPlaced, ev)
}

// OrderStatusChanged publishes an order.status_changed event.
func (p *AMQPPublisher) OrderStatusChanged(ctx context.Context, ev OrderStatusChangedEvent) error {
    return p.publish(ctx, TypeOrderStatusChanged, ev)
}

func (p *AMQPPublisher) publish(ctx context.Context, eventType string, data any) error {
    body, err := encode(eventType, data)
    if err != nil {
        return fmt.Errorf("marshal %s: %w", eventType, err)
    }

    ctx, cancel := context.WithTimeout(ctx, publishTimeout)
    defer cancel()

    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(publishTimeout)})
    if err != nil {
        p.Log.Warn().Err(err).Str("type", eventType).Msg("dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.Warn().Err(err).Msg("channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        p.Log.Warn().Err(err).Str("queue", p.Queue).Msg("queue declare failed")
        return err
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         eventType,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
        p.Log.Warn().Err(err).Str("type", eventType).Msg("publish failed")
        return err
    }
    p.Log.Debug().Str("type", eventType).Msg("event published")
    return nil
}

// NopPublisher discards every event.  Used when order events are disabled.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, OrderPlacedEvent) error { return nil }

func (NopPublisher) OrderStatusChanged(context.Context, OrderStatusChangedEvent) error { return nil }
