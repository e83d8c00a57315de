package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/casualjim/evctx/events"
	"github.com/casualjim/evctx/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	m1 = messages.New(1, "", "", "M1")
	m2 = messages.New(2, "", "", "M2")
)

type countingValue struct{ calls *atomic.Int32 }

func (v countingValue) Pretty() string {
	v.calls.Add(1)
	return "counted"
}

func TestCollector(t *testing.T) {
	t.Run("absorbs in order", func(t *testing.T) {
		c := NewCollector()
		a := events.NewEvent(m1, events.NewArgs(events.A("x", 1)))
		b := events.NewEvent(m2, events.NewArgs(events.A("y", "a")))
		c.Absorb(a, nil)
		c.Absorb(b)

		assert.Equal(t, 2, c.Len())
		assert.Equal(t, []*events.Event{a, b}, c.Snapshot().Events())
	})

	t.Run("snapshot is isolated", func(t *testing.T) {
		c := NewCollector()
		c.Absorb(events.NewEvent(m1, events.Args{}))
		snap := c.Snapshot()
		c.Absorb(events.NewEvent(m2, events.Args{}))

		assert.Equal(t, 1, snap.Len())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("snapshot applies options", func(t *testing.T) {
		c := NewCollector()
		c.Absorb(events.NewEvent(m1, events.NewArgs(events.A("x", 1))))
		assert.Equal(t, "M1(x=1, policy=wait)", c.Snapshot(events.WithPolicy(events.PolicyWait)).String())
		assert.Equal(t, "M1(x=1)", c.Snapshot().String())
	})

	t.Run("drain empties the collector", func(t *testing.T) {
		c := NewCollector()
		c.Absorb(events.NewEvent(m1, events.Args{}), events.NewEvent(m2, events.Args{}))
		drained := c.Drain()

		assert.Equal(t, 2, drained.Len())
		assert.Equal(t, 0, c.Len())
		assert.True(t, c.Drain().Empty())
	})

	t.Run("limit evicts the oldest", func(t *testing.T) {
		c := NewCollector(WithLimit(2))
		first := events.NewEvent(m1, events.NewArgs(events.A("x", 1)))
		c.Absorb(first)
		c.Absorb(events.NewEvent(m1, events.NewArgs(events.A("x", 2))))
		c.Absorb(events.NewEvent(m1, events.NewArgs(events.A("x", 3))))

		assert.Equal(t, 2, c.Len())
		_, ok := c.Snapshot().Get(first.ID())
		assert.False(t, ok)
		assert.Equal(t, "[M1(x=2), M1(x=3)]", c.Snapshot().String())
	})

	t.Run("events are rendered only for debug logs", func(t *testing.T) {
		var calls atomic.Int32
		ev := events.NewEvent(m1, events.NewArgs(events.A("v", countingValue{&calls})))

		var quiet bytes.Buffer
		c := NewCollector(WithLogger(slog.New(slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelInfo}))))
		c.Absorb(ev)
		assert.Zero(t, calls.Load())
		assert.Empty(t, quiet.String())

		var verbose bytes.Buffer
		c = NewCollector(WithLogger(slog.New(slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}))))
		c.Absorb(ev)
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, verbose.String(), "M1(v=counted)")
	})

	t.Run("concurrent producers", func(t *testing.T) {
		c := NewCollector()
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 50 {
					c.Absorb(events.NewEvent(m1, events.NewArgs(events.A("p", i), events.A("n", j))))
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 400, c.Len())
		assert.Equal(t, 400, c.Snapshot().Len())
	})
}

func TestPipe(t *testing.T) {
	t.Run("runs until the channel closes", func(t *testing.T) {
		c := NewCollector()
		ch := make(chan *events.Event, 3)
		ch <- events.NewEvent(m1, events.NewArgs(events.A("x", 1)))
		ch <- nil
		ch <- events.NewEvent(m2, events.NewArgs(events.A("y", "a")))
		close(ch)

		n, err := Pipe(context.Background(), ch, c)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, "[M1(x=1), M2(y='a')]", c.Snapshot().String())
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		c := NewCollector()
		ch := make(chan *events.Event)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		n, err := Pipe(ctx, ch, c)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 0, n)
	})
}
