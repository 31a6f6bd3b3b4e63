package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureHandler struct {
	topics   []string
	received chan Message
	panics   bool
}

func newCaptureHandler(topics ...string) *captureHandler {
	return &captureHandler{
		topics:   topics,
		received: make(chan Message, 16),
	}
}

func (h *captureHandler) Handle(ctx context.Context, msg Message) error {
	if h.panics {
		panic("boom")
	}
	h.received <- msg
	return nil
}

func (h *captureHandler) Topics() []string {
	return h.topics
}

func waitForMessage(t *testing.T, ch chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestInMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	defer func() { _ = bus.Stop(context.Background()) }()

	handler := newCaptureHandler("accounting.journal.entry")
	bus.Subscribe(handler)

	msg, err := NewMessage("accounting.journal.entry", "tenant-1", map[string]string{"id": "evt-1"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), msg))

	got := waitForMessage(t, handler.received)
	assert.Equal(t, "accounting.journal.entry", got.Topic)
	assert.Equal(t, "tenant-1", got.Key)
	assert.JSONEq(t, `{"id":"evt-1"}`, string(got.Payload))
}

func TestInMemoryBus_TopicIsolation(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	defer func() { _ = bus.Stop(context.Background()) }()

	journal := newCaptureHandler("accounting.journal.entry")
	mobile := newCaptureHandler("mobile.transaction.created")
	bus.Subscribe(journal)
	bus.Subscribe(mobile)

	msg, err := NewMessage("mobile.transaction.created", "", map[string]string{"id": "tx-1"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), msg))

	waitForMessage(t, mobile.received)
	select {
	case <-journal.received:
		t.Fatal("journal handler must not receive mobile topic messages")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryBus_PublishWhenStopped(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())

	msg, err := NewMessage("accounting.journal.entry", "", nil)
	require.NoError(t, err)
	assert.Error(t, bus.Publish(context.Background(), msg))
}

func TestInMemoryBus_HandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	panicking := newCaptureHandler("accounting.journal.entry")
	panicking.panics = true
	healthy := newCaptureHandler("accounting.journal.entry")
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	msg, err := NewMessage("accounting.journal.entry", "", map[string]string{"id": "evt-2"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), msg))

	waitForMessage(t, healthy.received)
	require.NoError(t, bus.Stop(context.Background()))
}

// countingHandler counts deliveries with a small artificial delay so the
// drain in Stop has real in-flight work to wait for.
type countingHandler struct {
	handled atomic.Int64
}

func (h *countingHandler) Handle(ctx context.Context, msg Message) error {
	time.Sleep(time.Millisecond)
	h.handled.Add(1)
	return nil
}

func (h *countingHandler) Topics() []string {
	return []string{"accounting.journal.entry"}
}

func TestInMemoryBus_StopDrainsConcurrentPublishes(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	handler := &countingHandler{}
	bus.Subscribe(handler)

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				msg, err := NewMessage("accounting.journal.entry", "", map[string]int{"n": i})
				assert.NoError(t, err)
				if bus.Publish(context.Background(), msg) == nil {
					accepted.Add(1)
				}
			}
		}()
	}

	// Stop races the publishers. Publishes accepted before the stop must
	// all be delivered by the time Stop returns; later ones are refused.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, bus.Stop(context.Background()))
	wg.Wait()

	assert.Equal(t, accepted.Load(), handler.handled.Load(),
		"every accepted publish must be delivered before Stop returns")
}

func TestInMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	defer func() { _ = bus.Stop(context.Background()) }()

	handler := newCaptureHandler("accounting.journal.status")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	msg, err := NewMessage("accounting.journal.status", "", nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), msg))

	select {
	case <-handler.received:
		t.Fatal("unsubscribed handler must not receive messages")
	case <-time.After(50 * time.Millisecond):
	}
}
