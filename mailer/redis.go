package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// RedisTransport publishes messages as JSON on a Redis channel. Publishing
// goes through a circuit breaker so a Redis outage fails requests fast.
type RedisTransport struct {
	client  redis.UniversalClient
	channel string
	breaker *gobreaker.CircuitBreaker[int64]
}

// BreakerSettings tunes the circuit breaker around publishing.
type BreakerSettings struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// DefaultBreakerSettings opens after 5 consecutive failures for 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, Timeout: 30 * time.Second}
}

// NewRedisTransport wraps client; state changes of the breaker are logged.
func NewRedisTransport(client redis.UniversalClient, channel string, settings BreakerSettings, logger *slog.Logger) *RedisTransport {
	breaker := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        "mailer-redis",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &RedisTransport{client: client, channel: channel, breaker: breaker}
}

// Dial parses a redis:// URL and returns a transport over a new client.
func Dial(url, channel string, logger *slog.Logger) (*RedisTransport, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return NewRedisTransport(redis.NewClient(opts), channel, DefaultBreakerSettings(), logger), nil
}

func (t *RedisTransport) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	_, err = t.breaker.Execute(func() (int64, error) {
		return t.client.Publish(ctx, t.channel, payload).Result()
	})
	return err
}

// State reports the breaker state, for health output.
func (t *RedisTransport) State() string {
	return t.breaker.State().String()
}

// Ping checks the Redis connection.
func (t *RedisTransport) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (t *RedisTransport) Close() error {
	return t.client.Close()
}
