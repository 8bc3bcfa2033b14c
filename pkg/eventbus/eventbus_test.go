package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestPublishCallsEverySubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("request.changed", func(ctx context.Context, event Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("other", func(ctx context.Context, event Event) error {
		t.Error("слушатель чужого события не должен вызываться")
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "request.changed"})
	require.NoError(t, bus.Wait(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListenerErrorsAndPanicsDoNotStopOthers(t *testing.T) {
	bus := New(zap.NewNop())
	var ok int32

	bus.Subscribe("e", func(ctx context.Context, event Event) error { return errors.New("boom") })
	bus.Subscribe("e", func(ctx context.Context, event Event) error { panic("crash") })
	bus.Subscribe("e", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "e"})
	require.NoError(t, bus.Wait(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}

func TestWaitRespectsContext(t *testing.T) {
	bus := New(zap.NewNop())
	release := make(chan struct{})
	bus.Subscribe("slow", func(ctx context.Context, event Event) error {
		<-release
		return nil
	})
	bus.Publish(context.Background(), testEvent{name: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Wait(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, bus.Wait(context.Background()))
}
