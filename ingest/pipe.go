package ingest

import (
	"context"

	"github.com/casualjim/evctx/events"
)

// Pipe absorbs events from ch into c until ch is closed or ctx is done. It
// returns the number of events absorbed and ctx.Err() when it was cancelled.
func Pipe(ctx context.Context, ch <-chan *events.Event, c *Collector) (int, error) {
	var n int
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return n, nil
			}
			if e == nil {
				continue
			}
			c.Absorb(e)
			n++
		}
	}
}
