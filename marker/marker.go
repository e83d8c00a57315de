// Package marker decorates rendered event expressions. A Marker wraps the
// text of each event it is attached to in zero-width tags; Colorize later
// turns those tags into terminal colours, after the expression has been laid
// out, so the layout never has to know about escape sequences.
package marker

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	tagOpen  = "⦃"
	tagClose = "⦄"
	endName  = "/"
)

// Marker decorates event text with a single colour.
type Marker struct {
	attr color.Attribute
}

var (
	// Matched marks events that satisfied an expectation.
	Matched = New(color.FgGreen)
	// Unmatched marks events that were expected but did not happen.
	Unmatched = New(color.FgRed)
	// Pending marks events that are still being waited for.
	Pending = New(color.FgYellow)
)

// New creates a marker for a fatih/color attribute.
func New(attr color.Attribute) *Marker {
	return &Marker{attr: attr}
}

// ByName returns the preset marker for "green", "red" or "yellow", or for the
// matching role names "matched", "unmatched" and "pending".
func ByName(name string) (*Marker, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "green", "matched":
		return Matched, true
	case "red", "unmatched":
		return Unmatched, true
	case "yellow", "pending":
		return Pending, true
	default:
		return nil, false
	}
}

// Attribute returns the colour attribute of the marker.
func (m *Marker) Attribute() color.Attribute {
	return m.attr
}

// Begin returns the tag opening a decorated span.
func (m *Marker) Begin() string {
	return tagOpen + strconv.Itoa(int(m.attr)) + tagClose
}

// End returns the tag closing a decorated span.
func (m *Marker) End() string {
	return tagOpen + endName + tagClose
}

// Colorize replaces the marker tags in text with colour escapes.
func (m *Marker) Colorize(text string) string {
	return Colorize(text)
}

// Colorize renders every tagged span of text in its colour. Spans may nest;
// the innermost colour wins. When colour output is disabled (color.NoColor)
// the tags are only stripped.
func Colorize(text string) string {
	if !strings.Contains(text, tagOpen) {
		return text
	}

	var (
		out   strings.Builder
		stack []color.Attribute
		span  strings.Builder
	)
	flush := func() {
		if span.Len() == 0 {
			return
		}
		if len(stack) == 0 {
			out.WriteString(span.String())
		} else {
			out.WriteString(color.New(stack[len(stack)-1]).Sprint(span.String()))
		}
		span.Reset()
	}

	for i := 0; i < len(text); {
		n, name, ok := ScanTag(text[i:])
		if !ok {
			span.WriteByte(text[i])
			i++
			continue
		}
		flush()
		if name == endName {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		} else if attr, err := strconv.Atoi(name); err == nil {
			stack = append(stack, color.Attribute(attr))
		}
		i += n
	}
	flush()
	return out.String()
}

// Strip removes every marker tag from text.
func Strip(text string) string {
	if !strings.Contains(text, tagOpen) {
		return text
	}
	var out strings.Builder
	for i := 0; i < len(text); {
		if n, _, ok := ScanTag(text[i:]); ok {
			i += n
			continue
		}
		out.WriteByte(text[i])
		i++
	}
	return out.String()
}

// ScanTag reports whether text starts with a marker tag. It returns the byte
// length of the tag and its name: a colour attribute number for opening tags
// or "/" for closing ones.
func ScanTag(text string) (int, string, bool) {
	if !strings.HasPrefix(text, tagOpen) {
		return 0, "", false
	}
	end := strings.Index(text[len(tagOpen):], tagClose)
	if end < 0 {
		return 0, "", false
	}
	name := text[len(tagOpen) : len(tagOpen)+end]
	if name != endName {
		if _, err := strconv.Atoi(name); err != nil {
			return 0, "", false
		}
	}
	return len(tagOpen) + end + len(tagClose), name, true
}
