package kafka

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-store/internal/domain/order"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker in front of the producer.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
	// PublishTimeout bounds a single write.
	PublishTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		PublishTimeout:      5 * time.Second,
	}
}

// OrderEventPublisher publishes order lifecycle events keyed by order ID.
// While the broker is failing the breaker is open and Publish returns
// gobreaker.ErrOpenState without touching the network.
type OrderEventPublisher struct {
	producer *Producer
	breaker  *gobreaker.CircuitBreaker[struct{}]
	timeout  time.Duration
}

func NewOrderEventPublisher(producer *Producer, settings BreakerSettings) *OrderEventPublisher {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-order-events",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Kafka] Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &OrderEventPublisher{
		producer: producer,
		breaker:  breaker,
		timeout:  settings.PublishTimeout,
	}
}

func (p *OrderEventPublisher) Publish(ctx context.Context, e order.Event) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		writeCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return struct{}{}, p.producer.Publish(writeCtx, e.OrderID, e)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.EventType, err)
	}
	return nil
}

// State reports the breaker state, for health checks.
func (p *OrderEventPublisher) State() gobreaker.State {
	return p.breaker.State()
}

func (p *OrderEventPublisher) Close() error {
	return p.producer.Close()
}
