// Package sideeffect runs everything that happens after a settlement commits:
// reward accrual, referral bonuses, stock decrements and notifications.
// Intents arrive through the outbox table the settlement wrote; they are
// best-effort and never unwind the financial commit.
package sideeffect

import (
	"context"
	"fmt"

	"moneta/internal/models"
)

// Handler processes one kind of side-effect event.
type Handler interface {
	Kind() string
	Handle(ctx context.Context, evt *models.OutboxEvent) error
}

// Dispatcher routes outbox events to their registered handlers.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register adds a handler. The last registration for a kind wins.
func (d *Dispatcher) Register(h Handler) {
	d.handlers[h.Kind()] = h
}

// Dispatch runs the handler for the event's kind.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *models.OutboxEvent) error {
	h, ok := d.handlers[evt.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, evt.Kind)
	}
	return h.Handle(ctx, evt)
}

// payloadUint reads a numeric payload field. JSON round-trips numbers as
// float64.
func payloadUint(payload models.JSON, key string) (uint, bool) {
	if payload == nil {
		return 0, false
	}
	switch v := payload[key].(type) {
	case uint:
		return v, true
	case int:
		if v > 0 {
			return uint(v), true
		}
	case float64:
		if v > 0 {
			return uint(v), true
		}
	}
	return 0, false
}
