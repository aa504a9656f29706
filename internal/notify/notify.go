// Package notify fans pipeline events out to subscribers without ever
// blocking the publisher.
package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of an event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Kind classifies an event.
type Kind string

const (
	KindStarted    Kind = "started"
	KindStopped    Kind = "stopped"
	KindDeviceOpen Kind = "device_open"
	KindSinkOpen   Kind = "sink_open"
	KindRead       Kind = "read"
	KindTransform  Kind = "transform"
	KindSinkWrite  Kind = "sink_write"
	KindInternal   Kind = "internal"
	KindStyle      Kind = "style"
	KindParams     Kind = "params"
)

// Event is a single notification.
type Event struct {
	Level   Level     `json:"level"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Info builds an informational event stamped with the current time.
func Info(kind Kind, msg string) Event {
	return Event{Level: LevelInfo, Kind: kind, Message: msg, Time: time.Now()}
}

// Error builds an error event stamped with the current time.
func Error(kind Kind, err error) Event {
	return Event{Level: LevelError, Kind: kind, Message: err.Error(), Time: time.Now()}
}

// Notifier receives events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Notifier = NotifierFunc(func(Event) {})

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Hub delivers each event to every subscriber. A subscriber whose queue is
// full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers queue up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Notify publishes e.
func (h *Hub) Notify(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel of future events. Call Unsubscribe to stop
// delivery and close the channel.
func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel returned by Subscribe and closes it.
func (h *Hub) Unsubscribe(sub <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		if ch == sub {
			delete(h.subs, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// queue was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
