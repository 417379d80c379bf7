package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusPublishSyncOrder(t *testing.T) {
	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown(context.Background())

	var got []string
	bus.SubscribeFunc(AccountChanged, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.(AccountChangedEvent).Address)
		return nil
	})
	bus.SubscribeFunc(AccountChanged, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.(AccountChangedEvent).Address)
		return nil
	})

	require.NoError(t, bus.PublishSync(context.Background(), NewAccountChanged("abc")))
	assert.Equal(t, []string{"first:abc", "second:abc"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown(context.Background())

	var calls int32
	sub := bus.SubscribeFunc(AccountRemoved, func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, 1, bus.HandlerCount(AccountRemoved))

	require.NoError(t, bus.PublishSync(context.Background(), NewAccountRemoved("x")))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), NewAccountRemoved("x")))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, bus.HandlerCount(AccountRemoved))
}

func TestBusHandlerErrorsAreJoined(t *testing.T) {
	bus := NewBus(zap.NewNop(), 8)
	defer bus.Shutdown(context.Background())

	boom := errors.New("boom")
	bus.SubscribeFunc(PoolUpdated, func(context.Context, Event) error { return boom })

	err := bus.PublishSync(context.Background(), PoolUpdatedEvent{BaseEvent: BaseEvent{EventType: PoolUpdated}})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBusAsyncPublish(t *testing.T) {
	bus := NewBus(zap.NewNop(), 16)

	var wg sync.WaitGroup
	wg.Add(3)
	bus.SubscribeFunc(AccountChanged, func(context.Context, Event) error {
		wg.Done()
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(NewAccountChanged("k")))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async events were not delivered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
	assert.ErrorIs(t, bus.Publish(NewAccountChanged("k")), ErrBusClosed)
}
