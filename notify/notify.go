// Package notify is the presentation layer's notification side channel: a
// small observer hub that UI code subscribes to and command handlers publish
// into. The auth and routing core never imports it; core code reports
// structured errors to its caller and the caller decides what to surface.
package notify

import "sync"

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Message is one notification payload.
type Message struct {
	Level Level
	Title string
	Text  string
}

// Hub fans published messages out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]func(Message)
	nextID int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[int]func(Message){}}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (h *Hub) Subscribe(fn func(Message)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers a message to every current subscriber. Delivery order is
// unspecified. Handlers run outside the hub lock, so a handler may subscribe
// or unsubscribe without deadlocking.
func (h *Hub) Publish(m Message) {
	h.mu.Lock()
	handlers := make([]func(Message), 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(m)
	}
}

// Success publishes a success message.
func (h *Hub) Success(text string) { h.Publish(Message{Level: LevelSuccess, Text: text}) }

// Error publishes an error message.
func (h *Hub) Error(text string) { h.Publish(Message{Level: LevelError, Text: text}) }

// Warning publishes a warning message.
func (h *Hub) Warning(text string) { h.Publish(Message{Level: LevelWarning, Text: text}) }

// Info publishes an info message.
func (h *Hub) Info(text string) { h.Publish(Message{Level: LevelInfo, Text: text}) }
