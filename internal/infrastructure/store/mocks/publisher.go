package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-store/internal/domain/order"
)

// Publisher records published order events
type Publisher struct {
	mu     sync.Mutex
	Events []order.Event
	Err    error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, e)
	return nil
}

// Types returns the published event types in order
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.EventType)
	}
	return types
}

// Reset clears recorded events
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = nil
}
