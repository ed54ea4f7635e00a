package events

import (
	"context"
	"testing"

	"loyalty-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDelivers(t *testing.T) {
	bus := NewLocalBus()
	var got []model.Event

	unsubscribe, err := bus.Subscribe(func(e model.Event) { got = append(got, e) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventSignedIn, UserID: "u1"}))
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)

	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventSignedOut, UserID: "u1"}))
	assert.Len(t, got, 1)
}

func TestLocalBusFanOut(t *testing.T) {
	bus := NewLocalBus()
	count := 0
	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe(func(model.Event) { count++ })
		require.NoError(t, err)
	}

	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventSyncCompleted}))
	assert.Equal(t, 3, count)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(context.Background(), model.Event{Type: model.EventSyncCompleted}))
	assert.Equal(t, 3, count)
}
