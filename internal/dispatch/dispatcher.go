package dispatch

import (
	"context"
	"errors"
	"sync"
)

// Handler handles a published message.
type Handler func(context.Context, Message) error

// Dispatcher allows message publication and subscription.
type Dispatcher interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(topic Topic, handler Handler)
}

// inMemoryDispatcher delivers synchronously on the publisher's goroutine.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[Topic][]Handler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[Topic][]Handler),
	}
}

// Publish invokes every handler for msg.Topic. A failing handler does not stop the others;
// their errors are joined and returned.
func (d *inMemoryDispatcher) Publish(ctx context.Context, msg Message) error {
	d.mu.RLock()
	handlers := append([]Handler{}, d.listeners[msg.Topic]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given topic.
func (d *inMemoryDispatcher) Subscribe(topic Topic, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[topic] = append(d.listeners[topic], handler)
}

// Nop discards every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Subscribe(Topic, Handler)               {}
