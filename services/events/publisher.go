// Package events carries booking lifecycle events from the state machine to their consumers
// (the wallet ledger and notification collaborators).
package events

import (
	"context"
	"errors"
	"sync"

	"reservo/models"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, evt models.BookingEvent) error
}

// Handler consumes one event. Returning an error asks for redelivery.
type Handler func(ctx context.Context, evt models.BookingEvent) error

// LocalBus delivers events in-process and synchronously. It is used when no broker is configured.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[models.BookingEventType][]Handler
	logger   *zap.Logger
}

func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{handlers: map[models.BookingEventType][]Handler{}, logger: logger}
}

func (b *LocalBus) Subscribe(h Handler, types ...models.BookingEventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

func (b *LocalBus) Publish(ctx context.Context, evt models.BookingEvent) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[evt.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := h(ctx, evt); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("type", string(evt.Type)),
				zap.String("bookingId", evt.BookingID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, models.BookingEvent) error { return nil }
