package events

import (
	"iter"
	"strings"

	"github.com/casualjim/evctx/dslfmt"
	"github.com/casualjim/evctx/marker"
	"github.com/casualjim/evctx/messages"
	"github.com/fogfish/opts"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Marker decorates rendered events. Begin and End wrap the text of every
// event; Colorize is applied to the final, formatted expression.
type Marker interface {
	Begin() string
	End() string
	Colorize(string) string
}

// Formatter lays out a rendered expression. A failing formatter never makes
// rendering fail: the unformatted expression is used instead.
type Formatter interface {
	Format(string) (string, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(string) (string, error)

func (fn FormatterFunc) Format(s string) (string, error) {
	return fn(s)
}

// Queryable is the query and rendering surface shared by Context and
// Multiple.
type Queryable interface {
	Events() []*Event
	All() iter.Seq[*Event]
	Len() int
	Empty() bool
	Filter(messages.Message) *Context
	Last() (*Event, bool)
	LastOf(messages.Message) (*Event, bool)
	Expression() string
	String() string

	mark(Marker)
	withPolicy(Policy) Queryable
}

var (
	_ Queryable = (*Context)(nil)
	_ Queryable = (*Multiple)(nil)
)

// Option configures a Context or a Multiple at construction.
type Option = opts.Option[Context]

var (
	// WithPolicy stamps every event that has no policy of its own.
	WithPolicy = opts.ForName[Context, Policy]("policy")
	// WithMarker sets the marker used to decorate the rendered events.
	WithMarker = opts.ForName[Context, Marker]("marker")
	// WithFormatter replaces the default dslfmt formatter.
	WithFormatter = opts.ForName[Context, Formatter]("formatter")
)

// Context owns a batch of events, indexed by identity and by origin.
type Context struct {
	byID      *orderedmap.OrderedMap[uuid.UUID, *Event]
	byOrigin  *orderedmap.OrderedMap[messages.ID, []*Event]
	policy    Policy
	marker    Marker
	formatter Formatter
}

// NewContext creates a context owning evs, in order. Nil events are skipped
// and an event appearing twice keeps its first position.
func NewContext(evs []*Event, options ...Option) *Context {
	c := base(options)
	c.index(evs)
	return c
}

func base(options []Option) *Context {
	c := &Context{formatter: dslfmt.Default}
	if err := opts.Apply(c, options); err != nil {
		panic(err)
	}
	return c
}

// index builds both indices in a single pass over evs, stamping the context
// policy on events that carry none.
func (c *Context) index(evs []*Event) {
	byID := orderedmap.New[uuid.UUID, *Event]()
	for _, e := range evs {
		if e == nil {
			continue
		}
		if c.policy != PolicyNone && e.policy == PolicyNone {
			e = e.WithPolicy(c.policy)
		}
		byID.Set(e.id, e)
	}

	byOrigin := orderedmap.New[messages.ID, []*Event]()
	for pair := byID.Oldest(); pair != nil; pair = pair.Next() {
		origin := pair.Value.Origin()
		list, _ := byOrigin.Get(origin)
		byOrigin.Set(origin, append(list, pair.Value))
	}

	c.byID = byID
	c.byOrigin = byOrigin
}

// Events returns the events in insertion order.
func (c *Context) Events() []*Event {
	evs := make([]*Event, 0, c.Len())
	for e := range c.All() {
		evs = append(evs, e)
	}
	return evs
}

// All iterates over the events in insertion order. The sequence can be
// ranged over any number of times.
func (c *Context) All() iter.Seq[*Event] {
	return func(yield func(*Event) bool) {
		if c.byID == nil {
			return
		}
		for pair := c.byID.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Len returns the number of events.
func (c *Context) Len() int {
	if c.byID == nil {
		return 0
	}
	return c.byID.Len()
}

// Empty reports whether the context owns no event, i.e. nothing happened.
func (c *Context) Empty() bool {
	return c.Len() == 0
}

// Get looks an event up by identity.
func (c *Context) Get(id uuid.UUID) (*Event, bool) {
	if c.byID == nil {
		return nil, false
	}
	return c.byID.Get(id)
}

// Origins returns the distinct message IDs of the events, in the order they
// were first seen.
func (c *Context) Origins() []messages.ID {
	if c.byOrigin == nil {
		return nil
	}
	ids := make([]messages.ID, 0, c.byOrigin.Len())
	for pair := c.byOrigin.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// Filter returns a new context with the events of msg, in their original
// order. The result keeps the marker and formatter of c and is empty when no
// event matches.
func (c *Context) Filter(msg messages.Message) *Context {
	out := &Context{marker: c.marker, formatter: c.formatter}
	var matched []*Event
	if msg != nil && c.byOrigin != nil {
		matched, _ = c.byOrigin.Get(msg.ID())
	}
	out.index(matched)
	return out
}

// Last returns the most recently inserted event.
func (c *Context) Last() (*Event, bool) {
	if c.byID == nil {
		return nil, false
	}
	pair := c.byID.Newest()
	if pair == nil {
		return nil, false
	}
	return pair.Value, true
}

// LastOf returns the most recently inserted event of msg.
func (c *Context) LastOf(msg messages.Message) (*Event, bool) {
	if msg == nil || c.byOrigin == nil {
		return nil, false
	}
	list, ok := c.byOrigin.Get(msg.ID())
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// Mark sets the marker and returns c.
func (c *Context) Mark(m Marker) *Context {
	c.mark(m)
	return c
}

func (c *Context) mark(m Marker) {
	c.marker = m
}

func (c *Context) withPolicy(p Policy) Queryable {
	out := &Context{policy: p, marker: c.marker, formatter: c.formatter}
	out.index(c.Events())
	return out
}

// Expression renders the events without layout or colours: a bare event
// when there is one, a bracketed list when there are several and the empty
// string when there is none. Every event is wrapped by the marker.
func (c *Context) Expression() string {
	n := c.Len()
	var b strings.Builder
	if n > 1 {
		b.WriteByte('[')
	}
	i := 0
	for e := range c.All() {
		if i > 0 {
			b.WriteString(", ")
		}
		if c.marker != nil {
			b.WriteString(c.marker.Begin())
		}
		b.WriteString(e.String())
		if c.marker != nil {
			b.WriteString(c.marker.End())
		}
		i++
	}
	if n > 1 {
		b.WriteByte(']')
	}
	return b.String()
}

// String renders the context through its formatter and marker.
func (c *Context) String() string {
	return render(c.Expression(), c.formatter, c.marker)
}

// render lays expr out and colours it. Tags left by marked operands are
// colourized even when the rendered context has no marker of its own.
func render(expr string, f Formatter, m Marker) string {
	out := layout(f, expr)
	if m != nil {
		return m.Colorize(out)
	}
	return marker.Colorize(out)
}

func layout(f Formatter, expr string) (out string) {
	if f == nil || expr == "" {
		return expr
	}
	defer func() {
		if recover() != nil {
			out = expr
		}
	}()
	formatted, err := f.Format(expr)
	if err != nil {
		return expr
	}
	return formatted
}
