package events

import "strings"

// Combinator is the operator joining the operands of a Multiple. It is only
// used for rendering.
type Combinator string

const (
	OpAnd Combinator = "and"
	OpOr  Combinator = "or"
)

// Multiple combines several contexts. For queries it behaves as a flat
// Context holding the events of every operand, in operand order; for
// rendering it keeps the operands apart.
type Multiple struct {
	*Context
	contexts []Queryable
	sources  []Queryable
	op       Combinator
}

// Combine creates a Multiple from contexts joined by op. The flattened
// events are a snapshot: later changes to the operands are not seen. A
// policy option is stamped on copies of the operands, so that their
// rendering agrees with the flattened events; Mark still reaches the
// contexts passed in.
func Combine(op Combinator, contexts []Queryable, options ...Option) *Multiple {
	return combine(op, contexts, base(options))
}

// And combines contexts with the "and" operator.
func And(contexts ...Queryable) *Multiple {
	return Combine(OpAnd, contexts)
}

// Or combines contexts with the "or" operator.
func Or(contexts ...Queryable) *Multiple {
	return Combine(OpOr, contexts)
}

func combine(op Combinator, contexts []Queryable, flat *Context) *Multiple {
	operands := make([]Queryable, 0, len(contexts))
	sources := make([]Queryable, 0, len(contexts))
	var evs []*Event
	for _, c := range contexts {
		if c == nil {
			continue
		}
		sources = append(sources, c)
		if flat.policy != PolicyNone {
			c = c.withPolicy(flat.policy)
		}
		operands = append(operands, c)
		evs = append(evs, c.Events()...)
	}
	flat.index(evs)
	return &Multiple{Context: flat, contexts: operands, sources: sources, op: op}
}

// Combinator returns the operator of the combination.
func (m *Multiple) Combinator() Combinator {
	return m.op
}

// Contexts returns the operands that hold at least one event, in order.
func (m *Multiple) Contexts() []Queryable {
	live := make([]Queryable, 0, len(m.contexts))
	for _, c := range m.contexts {
		if !c.Empty() {
			live = append(live, c)
		}
	}
	return live
}

// Mark sets the marker of m and of every operand, recursively, and returns m.
// When the operands were copied to stamp a policy, the contexts originally
// passed to Combine are marked too.
func (m *Multiple) Mark(mk Marker) *Multiple {
	m.mark(mk)
	return m
}

func (m *Multiple) mark(mk Marker) {
	m.Context.mark(mk)
	for i, c := range m.contexts {
		c.mark(mk)
		if src := m.sources[i]; src != c {
			src.mark(mk)
		}
	}
}

func (m *Multiple) withPolicy(p Policy) Queryable {
	stamped := combine(m.op, m.contexts, &Context{policy: p, marker: m.marker, formatter: m.formatter})
	stamped.sources = m.sources
	return stamped
}

// Expression renders the operands that hold events. A single one renders as
// itself, several are joined by the operator inside parentheses and none
// renders as the empty string.
func (m *Multiple) Expression() string {
	live := m.Contexts()
	switch len(live) {
	case 0:
		return ""
	case 1:
		return live[0].Expression()
	}
	parts := make([]string, len(live))
	for i, c := range live {
		parts[i] = c.Expression()
	}
	return "( " + strings.Join(parts, " "+string(m.op)+" ") + " )"
}

// String renders the combination through its formatter and marker.
func (m *Multiple) String() string {
	return render(m.Expression(), m.formatter, m.marker)
}
