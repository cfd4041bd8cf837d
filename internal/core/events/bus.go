// Package events provides the publish/subscribe bus that decouples the
// conversation engine, the tool dispatcher, and the presentation layer.
package events

import (
	"log/slog"
	"sync"
)

// Topics published across the application.
const (
	TopicSuggestionsReady = "suggestions.ready"
	TopicScopeSaved       = "scope.saved"
	TopicProjectRenamed   = "project.renamed"
	TopicRunStatus        = "run.status"
	TopicAssistantMessage = "assistant.message"
)

// Handler receives the payload published on a topic.
type Handler func(payload any)

// Bus routes published events to registered handlers. Handlers run
// synchronously on the publisher's goroutine; a panicking handler is
// recovered and logged so no event can take down the session.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	log      *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers payload to every handler registered for the topic.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	if len(handlers) == 0 {
		b.log.Debug("no handlers for event", "topic", topic)
		return
	}
	for _, h := range handlers {
		b.deliver(topic, h, payload)
	}
}

func (b *Bus) deliver(topic string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "topic", topic, "panic", r)
		}
	}()
	h(payload)
}
