package event

import (
	"sync"
)

// HandlerRegistry manages topic handler registrations
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler // topic -> handlers
	wildcard []Handler            // handlers for all topics
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]Handler),
		wildcard: make([]Handler, 0),
	}
}

// Register adds a handler for specific topics.
// If no topics are provided, the handler receives all messages.
func (r *HandlerRegistry) Register(handler Handler, topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(topics) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}

	for _, topic := range topics {
		r.handlers[topic] = append(r.handlers[topic], handler)
	}
}

// Unregister removes a handler from all topics
func (r *HandlerRegistry) Unregister(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = removeHandler(r.wildcard, handler)

	for topic, handlers := range r.handlers {
		r.handlers[topic] = removeHandler(handlers, handler)
		if len(r.handlers[topic]) == 0 {
			delete(r.handlers, topic)
		}
	}
}

// GetHandlers returns all handlers for a topic, including wildcard handlers
func (r *HandlerRegistry) GetHandlers(topic string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topicHandlers := r.handlers[topic]
	result := make([]Handler, 0, len(topicHandlers)+len(r.wildcard))
	result = append(result, topicHandlers...)
	result = append(result, r.wildcard...)

	return result
}

// removeHandler removes a handler from a slice by identity
func removeHandler(handlers []Handler, target Handler) []Handler {
	result := handlers[:0]
	for _, h := range handlers {
		if h != target {
			result = append(result, h)
		}
	}
	return result
}
