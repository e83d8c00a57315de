package ingest

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/casualjim/evctx/events"
	"github.com/casualjim/evctx/pkg/slogx"
	"github.com/fogfish/opts"
)

// Option configures a Collector.
type Option = opts.Option[Collector]

var (
	// WithLimit bounds the batch. Once it is reached the oldest events are
	// evicted. Zero means unbounded.
	WithLimit = opts.ForName[Collector, int]("limit")
	// WithLogger replaces slog.Default for the collector's diagnostics.
	WithLogger = opts.ForName[Collector, *slog.Logger]("logger")
)

// Collector accumulates events delivered by concurrent producers.
type Collector struct {
	mu     sync.Mutex
	batch  []*events.Event
	limit  int
	logger *slog.Logger
}

// NewCollector creates an empty collector.
func NewCollector(options ...Option) *Collector {
	c := &Collector{}
	if err := opts.Apply(c, options); err != nil {
		panic(err)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slogx.LoggerName("ingest"))
	return c
}

// Absorb appends events to the batch. Nil events are ignored.
func (c *Collector) Absorb(evs ...*events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	debug := c.logger.Enabled(context.Background(), slog.LevelDebug)
	for _, e := range evs {
		if e == nil {
			continue
		}
		c.batch = append(c.batch, e)
		if debug {
			c.logger.Debug("absorbed event", slogx.Event(e.ID(), e.String()))
		}
	}
	if c.limit > 0 && len(c.batch) > c.limit {
		evicted := len(c.batch) - c.limit
		c.batch = slices.Delete(c.batch, 0, evicted)
		c.logger.Debug("evicted events", slogx.Count(evicted))
	}
}

// Len returns the number of events absorbed and not drained.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batch)
}

// Snapshot returns a context over the events absorbed so far. The collector
// keeps its batch.
func (c *Collector) Snapshot(options ...events.Option) *events.Context {
	c.mu.Lock()
	batch := slices.Clone(c.batch)
	c.mu.Unlock()
	return events.NewContext(batch, options...)
}

// Drain returns a context over the events absorbed so far and empties the
// collector.
func (c *Collector) Drain(options ...events.Option) *events.Context {
	c.mu.Lock()
	batch := c.batch
	c.batch = nil
	c.mu.Unlock()
	return events.NewContext(batch, options...)
}
