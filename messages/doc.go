// Package messages describes the message kinds that events instantiate. The
// protocol layer owns the actual catalogue; this package only models the two
// things the event context needs from it: a stable identity usable as a map
// key and a human readable full name used when rendering.
//
// Design decisions:
//   - Packed identity: an ID carries the project, class and command numbers
//     of a message in a single uint32, so it is cheap to compare and hash
//   - Interface first: anything exposing ID() and FullName() is a Message, the
//     Descriptor type is only a convenient concrete implementation
//   - Shared catalogue: Registry resolves messages by name or ID and can be
//     shared between goroutines
//
// Example usage:
//
//	takeOff := messages.New(messages.MakeID(1, 0, 1), "ardrone3", "Piloting", "TakeOff")
//	takeOff.FullName() // "ardrone3.Piloting.TakeOff"
//
//	reg := messages.NewRegistry()
//	reg.Register(takeOff)
//	msg, err := reg.Resolve("ardrone3.Piloting.TakeOff", 0)
package messages
