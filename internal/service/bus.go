package service

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Resources published on the bus.
const (
	ResourceStyle  = "style"
	ResourceLayer  = "layer"
	ResourceExport = "export"
)

// Event represents a change to the style or the export pipeline.
type Event struct {
	Resource string // ResourceStyle, ResourceLayer or ResourceExport
	Action   string // "loaded", "reset", "updated", or an export state
	ID       string // layer ID or export ID
	Detail   string // optional message, e.g. an error
}

// EventBus is a fan-out pub/sub for change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers without blocking. Slow
// subscribers miss events.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			logrus.WithFields(logrus.Fields{"resource": e.Resource, "action": e.Action}).Debug("event dropped for slow subscriber")
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// DefaultBus is the package-level event bus.
var DefaultBus = NewEventBus()
