package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventBus 进程内同步事件总线，按事件名分发，同名 handler 只能订阅一次
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]EventHandler)}
}

func (bus *EventBus) Subscribe(eventName string, handler EventHandler) error {
	if eventName == "" {
		return errEmptyEventName
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	for _, h := range bus.handlers[eventName] {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler %s already subscribed to %s", handler.Name(), eventName)
		}
	}
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	return nil
}

// HasSubscribers reports whether Publish would reach any handler.
func (bus *EventBus) HasSubscribers(eventName string) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.handlers[eventName]) > 0
}

// Publish runs the event's handlers in subscription order. Every handler runs
// even when an earlier one fails; failures come back joined.
func (bus *EventBus) Publish(ctx context.Context, event DomainEvent) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}

	bus.mu.RLock()
	handlers := append([]EventHandler(nil), bus.handlers[event.EventName()]...)
	bus.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", h.Name(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("event %s: %w", event.EventName(), err)
	}
	return nil
}

// FuncHandler adapts a function to EventHandler.
type FuncHandler struct {
	name string
	fn   func(context.Context, DomainEvent) error
}

func NewFuncHandler(name string, fn func(context.Context, DomainEvent) error) *FuncHandler {
	return &FuncHandler{name: name, fn: fn}
}

func (h *FuncHandler) Handle(ctx context.Context, event DomainEvent) error { return h.fn(ctx, event) }

func (h *FuncHandler) Name() string { return h.name }
