package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
	Number string `json:"number"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, document.AggregateTypeDocument, uuid.New()),
		Number:          "F-2026-0001",
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	paid := &testHandler{eventTypes: []string{document.EventTypeInvoicePaid}}
	wildcard := &testHandler{}
	bus.Subscribe(paid)
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(t.Context(),
		newTestEvent(document.EventTypeInvoicePaid),
		newTestEvent(document.EventTypeDocumentCreated),
	))

	assert.Equal(t, 1, paid.count())
	assert.Equal(t, 2, wildcard.count())

	published, failed := bus.Stats()
	assert.Equal(t, int64(2), published)
	assert.Zero(t, failed)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &testHandler{eventTypes: []string{document.EventTypeInvoicePaid}}
	bus.Subscribe(h, document.EventTypeDocumentSent)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent(document.EventTypeInvoicePaid)))
	require.NoError(t, bus.Publish(t.Context(), newTestEvent(document.EventTypeDocumentSent)))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &testHandler{err: errors.New("handler error")}
	panicking := &testHandler{panics: true}
	healthy := &testHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(t.Context(), newTestEvent(document.EventTypeDocumentDeleted))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
	_, failed := bus.Stats()
	assert.Equal(t, int64(2), failed)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	typed := &testHandler{eventTypes: []string{document.EventTypeDocumentSent}}
	wildcard := &testHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(wildcard)

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wildcard)
	require.NoError(t, bus.Publish(t.Context(), newTestEvent(document.EventTypeDocumentSent)))

	assert.Zero(t, typed.count())
	assert.Zero(t, wildcard.count())
	assert.Empty(t, bus.registry.handlers)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(t.Context()))
	assert.True(t, bus.running.Load())
	require.NoError(t, bus.Stop(t.Context()))
	assert.False(t, bus.running.Load())
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))
	event := newTestEvent(document.EventTypeDocumentConverted)

	require.NoError(t, h.Handle(t.Context(), event))
	assert.Nil(t, h.EventTypes())

	entries := logs.FilterMessage(document.EventTypeDocumentConverted).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, event.AggregateID().String(), fields["aggregate_id"])
	assert.Contains(t, fields["payload"], `"number":"F-2026-0001"`)
}
