package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is the wire envelope carried on the bus. Payload stays raw JSON
// until a topic handler decodes it into its tagged variant - no business
// logic runs on undecoded payloads.
type Message struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// NewMessage builds a message for the given topic, marshaling the payload
func NewMessage(topic, key string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}
	return Message{
		ID:         uuid.NewString(),
		Topic:      topic,
		Key:        key,
		Payload:    raw,
		ReceivedAt: time.Now(),
	}, nil
}

// Handler processes messages from one or more topics
type Handler interface {
	// Handle processes a single message. The bus delivers at-least-once;
	// handlers must tolerate duplicates.
	Handle(ctx context.Context, msg Message) error
	// Topics returns the topic names this handler subscribes to
	Topics() []string
}

// Publisher publishes messages onto the bus
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber registers handlers for topics
type Subscriber interface {
	Subscribe(handler Handler, topics ...string)
	Unsubscribe(handler Handler)
}

// Bus combines publisher and subscriber capabilities
type Bus interface {
	Publisher
	Subscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// InMemoryBus implements Bus with in-process pub/sub. Each delivery runs in
// its own goroutine so one slow handler cannot block unrelated messages;
// no ordering is guaranteed across messages, matching the assumptions the
// ingestion pipeline is built on.
type InMemoryBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger

	// mu orders Publish against Stop: a publisher holds the read lock from
	// the running check through wg.Add, so Stop cannot begin its drain
	// between the two and miss the delivery.
	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
}

// NewInMemoryBus creates a new in-memory message bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	return &InMemoryBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers a message to every handler subscribed to its topic.
// Delivery is asynchronous; Publish never waits for handlers.
func (b *InMemoryBus) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return fmt.Errorf("bus is not running")
	}

	handlers := b.registry.GetHandlers(msg.Topic)
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for topic",
			zap.String("topic", msg.Topic),
			zap.String("message_id", msg.ID),
		)
		return nil
	}

	for _, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := b.dispatchToHandler(ctx, h, msg); err != nil {
				b.logger.Error("handler failed to process message",
					zap.String("topic", msg.Topic),
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			}
		}(handler)
	}
	return nil
}

// Subscribe registers a handler for specific topics.
// If no topics are provided, the handler's own Topics() are used.
func (b *InMemoryBus) Subscribe(handler Handler, topics ...string) {
	if len(topics) == 0 {
		topics = handler.Topics()
	}
	b.registry.Register(handler, topics...)
	b.logger.Debug("handler subscribed", zap.Strings("topics", topics))
}

// Unsubscribe removes a handler
func (b *InMemoryBus) Unsubscribe(handler Handler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the bus
func (b *InMemoryBus) Start(ctx context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	b.logger.Info("message bus started")
	return nil
}

// Stop stops the bus after waiting for in-flight deliveries. Once the write
// lock is acquired every in-flight Publish has already done its wg.Add, so
// the drain below cannot miss a delivery.
func (b *InMemoryBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("message bus stopped before all deliveries finished")
		return ctx.Err()
	}
	b.logger.Info("message bus stopped")
	return nil
}

// dispatchToHandler safely dispatches a message to a handler
func (b *InMemoryBus) dispatchToHandler(ctx context.Context, handler Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, msg)
}

// Ensure InMemoryBus implements Bus
var _ Bus = (*InMemoryBus)(nil)
