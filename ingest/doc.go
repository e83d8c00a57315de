// Package ingest gathers events as they are delivered and turns them into
// event contexts. It sits in front of the events package: a Collector
// absorbs events from any number of producers, and Snapshot hands out an
// immutable Context of what was absorbed so far.
//
// Design decisions:
//   - Serialised absorption: a Collector guards its batch with a mutex, contexts
//     built from it never see later absorptions
//   - Context-first delivery: Pipe and SubscribeNATS stop when their
//     context.Context is done
//   - Bounded batches: WithLimit keeps only the most recent events
//   - Log and continue: undecodable NATS payloads are logged through slog and
//     dropped, they never stop a subscription
//
// Example usage:
//
//	c := ingest.NewCollector(ingest.WithLimit(1000))
//	sub, err := ingest.SubscribeNATS(ctx, nc, "drone.events", registry, c)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	// later
//	ctx := c.Snapshot(events.WithPolicy(events.PolicyWait))
//	fmt.Println(ctx)
package ingest
