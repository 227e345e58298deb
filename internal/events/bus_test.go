package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-importa/internal/events"
)

type stubStore struct {
	lastTopic   string
	lastPayload []byte
}

func (s *stubStore) InsertEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	s.lastTopic = topic
	s.lastPayload = payload
	return events.Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	orderID := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicPaymentRecorded, orderID, map[string]any{"amount": 500})
	require.NoError(t, err)
	require.Equal(t, events.TopicPaymentRecorded, store.lastTopic)
	require.Len(t, notifier.events, 1)
	require.Equal(t, orderID, ev.AggregateID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.lastPayload, &payload))
	require.EqualValues(t, 500, payload["amount"])
}

func TestEmitRequiresAggregate(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, uuid.Nil, nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureDoesNotDropEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{err: errors.New("cache down")}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), events.TopicExpenseRecorded, uuid.New(), nil)
	require.Error(t, err)
	require.NotEqual(t, uuid.Nil, ev.ID)
	require.Equal(t, events.TopicExpenseRecorded, store.lastTopic)
}

func TestEmitRejectsInvalidJSONBytes(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, uuid.New(), []byte("{not json"))
	require.Error(t, err)
}
