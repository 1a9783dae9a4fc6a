package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

const maxBackoff = 30 * time.Second

// Consumer reads order events from the queue and appends one
// human-readable line per event to LogPath.
type Consumer struct {
    URL     string
    Queue   string
    LogPath string
    Log     zerolog.Logger

    mu sync.Mutex // serializes writes to LogPath
}

// NewConsumer returns a consumer for the given broker, queue and log file.
func NewConsumer(url, queue, logPath string, log zerolog.Logger) *Consumer {
    return &Consumer{
        URL:     url,
        Queue:   queue,
        LogPath: logPath,
        Log:     log.With().Str("component", "order-consumer").Logger(),
    }
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-established with exponential back-off capped at 30s.
// It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            backoff = min(backoff*2, maxBackoff)
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.Log.Info().Str("queue", c.Queue).Msg("consuming order events")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.Log.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false) // dead message, do not requeue
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle formats one message and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
    line, err := FormatLine(body)
    if err != nil {
        return err
    }

    c.mu.Lock()
    defer c.mu.Unlock()
    if dir := filepath.Dir(c.LogPath); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir %s: %w", dir, err)
        }
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line + "\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an encoded event as a single log line.
func FormatLine(body []byte) (string, error) {
    var env Envelope
    if err := json.Unmarshal(body, &env); err != nil {
        return "", fmt.Errorf("unmarshal envelope: %w", err)
    }
    switch env.Type {
    case TypeOrderPlaced:
        var ev OrderPlacedEvent
        if err := json.Unmarshal(env.Data, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", env.Type, err)
        }
        items := make([]string, 0, len(ev.Items))
        for _, it := range ev.Items {
            items = append(items, fmt.Sprintf("%s x%d @ %s", it.ProductName, it.Quantity, it.UnitPrice))
        }
        return fmt.Sprintf("[%s] Order placed | user_id=%d | user=%q | orders=%v | items=[%s]",
            ev.PlacedAt.UTC().Format(time.RFC3339), ev.UserID, ev.Username, ev.OrderIDs, strings.Join(items, ", ")), nil
    case TypeOrderStatusChanged:
        var ev OrderStatusChangedEvent
        if err := json.Unmarshal(env.Data, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", env.Type, err)
        }
        return fmt.Sprintf("[%s] Order status changed | order_id=%d | user_id=%d | %s -> %s",
            ev.ChangedAt.UTC().Format(time.RFC3339), ev.OrderID, ev.UserID, ev.From, ev.To), nil
    default:
        return "", fmt.Errorf("unknown event type %q", env.Type)
    }
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
