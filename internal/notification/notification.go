package notification

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    "github.com/redis/go-redis/v9"
)

const (
    // KindWalletCreated is emitted after a wallet is first stored.
    KindWalletCreated = "wallet_created"
    // KindTransactionRecorded is emitted after a transaction is persisted.
    KindTransactionRecorded = "transaction_recorded"

    // DefaultChannel is the pub/sub channel RedisNotifier publishes on.
    DefaultChannel = "walletbook:events"
)

// Message describes a wallet event.
type Message struct {
    Kind     string    `json:"kind"`
    WalletID string    `json:"wallet_id"`
    Body     string    `json:"body"`
    At       time.Time `json:"at"`
}

// Notifier delivers wallet events to downstream systems.
type Notifier interface {
    Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes events to the structured logger.
type LoggerNotifier struct {
    logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
    return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
    if n == nil || n.logger == nil {
        return nil
    }
    n.logger.Info("notification", "kind", message.Kind, "wallet_id", message.WalletID, "body", message.Body)
    return nil
}

// RedisNotifier publishes events as JSON on a Redis channel.
type RedisNotifier struct {
    client  *redis.Client
    channel string
}

// NewRedisNotifier publishes on channel, or DefaultChannel when empty.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
    if channel == "" {
        channel = DefaultChannel
    }
    return &RedisNotifier{client: client, channel: channel}
}

// Send publishes the message.
func (n *RedisNotifier) Send(ctx context.Context, message Message) error {
    payload, err := json.Marshal(message)
    if err != nil {
        return fmt.Errorf("encode notification: %w", err)
    }
    if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
        return fmt.Errorf("publish notification: %w", err)
    }
    return nil
}

// Fanout sends every message to each notifier and returns the first error.
type Fanout []Notifier

// Send delivers to all notifiers even if one fails.
func (f Fanout) Send(ctx context.Context, message Message) error {
    var first error
    for _, n := range f {
        if err := n.Send(ctx, message); err != nil && first == nil {
            first = err
        }
    }
    return first
}
