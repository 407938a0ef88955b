package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []Event
	err    error
}

func (m *memStore) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	if m.err != nil {
		return Event{}, m.err
	}
	ev := Event{
		ID:          "ev-1",
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     json.RawMessage(payload),
		OccurredAt:  time.Now(),
	}
	m.events = append(m.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []Event
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, "order-1", map[string]any{"total": 5350})
	require.NoError(t, err)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.Len(t, store.events, 1)
	require.Len(t, notifier.seen, 1)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &Bus{Store: &memStore{}}
	_, err := bus.Emit(context.Background(), "", "order-1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), TopicOrderCreated, " ", nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureDoesNotUndoPersist(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}}

	_, err := bus.Emit(context.Background(), TopicPointsSwept, "sweep", map[string]int{"cleared": 3})
	require.Error(t, err)
	require.Len(t, store.events, 1)
}

func TestEmitStoreFailure(t *testing.T) {
	bus := &Bus{Store: &memStore{err: errors.New("db down")}}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, "order-1", nil)
	require.Error(t, err)
}
