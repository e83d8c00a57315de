// Package events indexes and renders the events produced by a message driven
// system. An Event records one occurrence of a message kind with its
// arguments; a Context owns a batch of events and answers questions about it;
// a Multiple combines several contexts under an operator while still behaving
// like a flat Context.
//
// Design decisions:
//   - Two indices, one pass: a context keeps its events keyed by identity and
//     by origin (the message kind), both built together at construction and
//     never mutated afterwards
//   - Copy on write: Filter and policy stamping produce new values, events
//     and contexts are never changed in place
//   - Absent is not an error: Last and LastOf report a missing event with a
//     false boolean
//   - Rendering never fails: formatter errors and panics fall back to the raw
//     expression
//   - Collaborators are capabilities: markers and formatters are small
//     interfaces, implemented by the marker and dslfmt packages
//
// Type hierarchy:
//   - Queryable: shared query and rendering surface
//     ├── Context: indexed batch of events
//     └── Multiple: contexts combined with an operator ("and", "or", ...)
//
// Rendered notation:
//
//	event := fullName "(" args ")"            M1(x=1)
//	list  := "[" expr ("," expr)* "]"         [M2(y='a'), M2(y='b')]
//	group := "(" expr (" " op " " expr)* ")"  ( M1(x=1) and M3() )
//
// Example usage:
//
//	takeOff := messages.New(messages.MakeID(1, 0, 1), "ardrone3", "Piloting", "TakeOff")
//	state := messages.New(messages.MakeID(1, 4, 1), "ardrone3", "PilotingState", "FlyingStateChanged")
//
//	ctx := events.NewContext([]*events.Event{
//	    events.NewEvent(takeOff, events.NewArgs()),
//	    events.NewEvent(state, events.NewArgs(events.A("state", "takingoff"))),
//	}, events.WithPolicy(events.PolicyWait))
//
//	if last, ok := ctx.LastOf(state); ok {
//	    fmt.Println(last) // ardrone3.PilotingState.FlyingStateChanged(state='takingoff', policy=wait)
//	}
//
//	both := events.And(ctx.Filter(takeOff), ctx.Filter(state))
//	fmt.Println(both.Mark(marker.Matched))
package events
