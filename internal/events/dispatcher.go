package events

import (
	"log"
	"sync"
	"time"
)

// Kind is an item lifecycle event kind.
type Kind string

const (
	RecordCreated Kind = "record_created"
	RecordUpdated Kind = "record_updated"
	FieldChanged  Kind = "field_changed"
	DateReached   Kind = "date_reached"
)

// Event is one item lifecycle event. Before/After are item data snapshots;
// Before is nil for record_created. ColumnID is set for field_changed only.
// System marks events caused by automation actions so the automation engine
// can skip them and bound recursion.
type Event struct {
	Kind       Kind
	BoardID    string
	ItemID     string
	ColumnID   string
	Before     map[string]interface{}
	After      map[string]interface{}
	System     bool
	OccurredAt time.Time
}

// Handler receives published events. A handler error is logged, never
// propagated to the publisher.
type Handler interface {
	HandleEvent(evt Event) error
}

// Dispatcher is a synchronous in-process pub/sub choke point for item
// lifecycle events. Delivery is in subscription order; one subscriber
// failing (error or panic) does not prevent delivery to the rest and never
// fails the publishing mutation.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler. Registration is process-lifetime.
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Unsubscribe removes a previously registered handler.
func (d *Dispatcher) Unsubscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, reg := range d.handlers {
		if reg == h {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers evt to all current subscribers and returns after every
// subscriber has run.
func (d *Dispatcher) Publish(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, evt)
	}
}

// PublishAsync delivers evt on a separate goroutine (fire-and-forget). No
// ordering guarantee relative to the caller's next operation.
func (d *Dispatcher) PublishAsync(evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	go d.Publish(evt)
}

func deliver(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event subscriber panicked on %s for item %s: %v", evt.Kind, evt.ItemID, r)
		}
	}()
	if err := h.HandleEvent(evt); err != nil {
		log.Printf("event subscriber failed on %s for item %s: %v", evt.Kind, evt.ItemID, err)
	}
}
