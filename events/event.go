package events

import (
	"slices"
	"strings"

	"github.com/casualjim/evctx/messages"
	"github.com/casualjim/evctx/pkg/uuidx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Policy annotates how an event was matched. The empty policy means none.
type Policy string

const (
	PolicyNone      Policy = ""
	PolicyCheck     Policy = "check"
	PolicyWait      Policy = "wait"
	PolicyCheckWait Policy = "check_wait"
)

// Event is one occurrence of a message. Events are immutable; WithPolicy
// returns an annotated copy that keeps the identity of the original.
type Event struct {
	id        uuid.UUID
	message   messages.Message
	apps      []Args
	multi     bool
	policy    Policy
	createdAt strfmt.DateTime
}

// NewEvent records a single application of msg.
func NewEvent(msg messages.Message, args Args) *Event {
	return newEvent(uuidx.New(), msg, []Args{args}, false)
}

// NewMultiEvent records several simultaneous applications of msg.
func NewMultiEvent(msg messages.Message, apps []Args) *Event {
	return newEvent(uuidx.New(), msg, slices.Clone(apps), true)
}

func newEvent(id uuid.UUID, msg messages.Message, apps []Args, multi bool) *Event {
	return &Event{
		id:        id,
		message:   msg,
		apps:      apps,
		multi:     multi,
		createdAt: strfmt.DateTime(uuidx.Time(id)),
	}
}

// ID returns the identity of the event.
func (e *Event) ID() uuid.UUID { return e.id }

// Message returns the message kind the event instantiates.
func (e *Event) Message() messages.Message { return e.message }

// Origin returns the ID of the message kind, the key of the origin index.
func (e *Event) Origin() messages.ID {
	if e.message == nil {
		return 0
	}
	return e.message.ID()
}

// Args returns the arguments of the first application.
func (e *Event) Args() Args {
	if len(e.apps) == 0 {
		return Args{}
	}
	return e.apps[0]
}

// Applications returns the arguments of every application in order.
func (e *Event) Applications() []Args { return slices.Clone(e.apps) }

// Multi reports whether the event was recorded with NewMultiEvent.
func (e *Event) Multi() bool { return e.multi }

// Policy returns the policy annotation, PolicyNone when there is none.
func (e *Event) Policy() Policy { return e.policy }

// CreatedAt returns the capture time, taken from the identity.
func (e *Event) CreatedAt() strfmt.DateTime { return e.createdAt }

// WithPolicy returns a copy of the event annotated with p.
func (e *Event) WithPolicy(p Policy) *Event {
	cp := *e
	cp.policy = p
	return &cp
}

// String renders the event as fullName(name=value, ...[, policy=P]). Several
// applications render as a bracketed list inside the call.
func (e *Event) String() string {
	var b strings.Builder
	b.WriteString(fullName(e.message))
	b.WriteByte('(')
	switch {
	case len(e.apps) == 1:
		b.WriteString(e.apps[0].render(e.policy))
	case len(e.apps) > 1:
		b.WriteByte('[')
		for i, app := range e.apps {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(app.render(e.policy))
		}
		b.WriteByte(']')
	}
	b.WriteByte(')')
	return b.String()
}

func fullName(m messages.Message) string {
	if m == nil {
		return "<nil>"
	}
	return m.FullName()
}
