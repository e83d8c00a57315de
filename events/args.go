package events

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	json "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Renderable is implemented by argument values that know how to print
// themselves in an expression, enums for instance.
type Renderable interface {
	Pretty() string
}

// Arg is a single named argument.
type Arg struct {
	Name  string
	Value any
}

// A creates an Arg.
func A(name string, value any) Arg {
	return Arg{Name: name, Value: value}
}

// Args is an immutable, insertion ordered mapping of argument names to values.
// The zero value is an empty mapping.
type Args struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewArgs creates an Args from the given arguments in order. A repeated name
// keeps its first position and its last value.
func NewArgs(args ...Arg) Args {
	m := orderedmap.New[string, any]()
	for _, a := range args {
		m.Set(a.Name, a.Value)
	}
	return Args{m: m}
}

// Len returns the number of arguments.
func (a Args) Len() int {
	if a.m == nil {
		return 0
	}
	return a.m.Len()
}

// Get returns the value of the named argument.
func (a Args) Get(name string) (any, bool) {
	if a.m == nil {
		return nil, false
	}
	return a.m.Get(name)
}

// All iterates over the arguments in insertion order.
func (a Args) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if a.m == nil {
			return
		}
		for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Names returns the argument names in insertion order.
func (a Args) Names() []string {
	names := make([]string, 0, a.Len())
	for name := range a.All() {
		names = append(names, name)
	}
	return names
}

// String renders the arguments as a comma separated list of name=value.
func (a Args) String() string {
	return a.render("")
}

func (a Args) render(policy Policy) string {
	parts := make([]string, 0, a.Len()+1)
	for name, value := range a.All() {
		parts = append(parts, name+"="+repr(value))
	}
	if policy != PolicyNone {
		parts = append(parts, "policy="+string(policy))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the arguments as a JSON object, preserving their order.
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for name, value := range a.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// repr renders one argument value: its own Pretty form when it has one,
// single quoted text for strings and the default formatting otherwise.
// Backslashes and single quotes inside text are escaped so the rendered
// expression stays unambiguous.
func repr(value any) string {
	switch v := value.(type) {
	case Renderable:
		if s, ok := pretty(v); ok {
			return s
		}
		return fmt.Sprint(v)
	case string:
		return "'" + quoteEscaper.Replace(v) + "'"
	default:
		return fmt.Sprint(v)
	}
}

func pretty(v Renderable) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	return v.Pretty(), true
}
