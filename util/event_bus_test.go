// util/event_bus_test.go
package util_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbirs-tools/admin-api/util"
)

func TestEventBusFansOutToSubscribers(t *testing.T) {
	bus := util.NewEventBus()
	ctx := context.Background()

	received := make(chan util.Event, 2)
	handler := func(ctx context.Context, e util.Event) error {
		received <- e
		return nil
	}
	bus.Subscribe("permissions.updated", handler)
	bus.Subscribe("permissions.updated", handler)

	bus.Publish(ctx, "permissions.updated", "payload")

	for i := 0; i < 2; i++ {
		select {
		case e := <-received:
			assert.Equal(t, "permissions.updated", e.Type)
			assert.Equal(t, "payload", e.Payload)
		case <-time.After(time.Second):
			t.Fatal("handler was not invoked")
		}
	}
}

func TestEventBusIgnoresUnsubscribedTypes(t *testing.T) {
	bus := util.NewEventBus()

	received := make(chan util.Event, 1)
	bus.Subscribe("item.renamed", func(ctx context.Context, e util.Event) error {
		received <- e
		return nil
	})

	bus.Publish(context.Background(), "permissions.updated", nil)

	select {
	case <-received:
		t.Fatal("handler for a different event type must not fire")
	case <-time.After(50 * time.Millisecond):
	}
	require.Empty(t, received)
}
