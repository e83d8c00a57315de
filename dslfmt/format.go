// Package dslfmt lays out event expressions. It knows just enough about the
// notation to do that: brackets nest, commas separate elements, and a handful
// of words and symbols join operands. Everything else is an opaque token.
//
// Lines that fit in the column limit are kept flat. A bracket whose content
// does not fit is broken: the opening bracket ends the line, every element
// gets a line of its own one indent deeper, operators start their line and
// the closing bracket returns to the enclosing indentation. Dotted names are
// single tokens, so a line is never split at a member access.
package dslfmt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/casualjim/evctx/marker"
)

// ErrMalformed is returned for input whose brackets or quotes do not balance.
var ErrMalformed = errors.New("malformed expression")

// Style configures the layout.
type Style struct {
	// ColumnLimit is the maximum display width of a line.
	ColumnLimit int
	// Indent is the number of spaces added per nesting level when a bracket
	// is broken.
	Indent int
}

// DefaultStyle is the layout used for rendered event contexts.
var DefaultStyle = Style{ColumnLimit: 100, Indent: 4}

// Formatter formats expressions with a fixed Style.
type Formatter struct {
	style Style
}

// Default formats with DefaultStyle.
var Default = New(DefaultStyle)

// New creates a formatter. Non-positive values fall back to DefaultStyle.
func New(style Style) *Formatter {
	if style.ColumnLimit <= 0 {
		style.ColumnLimit = DefaultStyle.ColumnLimit
	}
	if style.Indent <= 0 {
		style.Indent = DefaultStyle.Indent
	}
	return &Formatter{style: style}
}

// Format formats src with the default formatter.
func Format(src string) (string, error) {
	return Default.Format(src)
}

// Style returns the style of the formatter.
func (f *Formatter) Style() Style {
	return f.style
}

// Format returns the canonical layout of src.
func (f *Formatter) Format(src string) (string, error) {
	nodes, err := parse(src)
	if err != nil {
		return "", err
	}
	p := printer{style: f.style}
	p.seq(nodes, 0)
	return p.out.String(), nil
}

type kind uint8

const (
	atom kind = iota
	str
	tag
	comma
	op
	group
)

type node struct {
	kind  kind
	text  string
	space bool // whitespace preceded the node

	// group only
	open, close string
	children    []*node
	closeSpace  bool
}

var operators = map[string]struct{}{
	"and": {}, "or": {}, "&": {}, "|": {}, "&&": {}, "||": {}, ">>": {},
}

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '[', ']', '{', '}', ',', '\'', '"':
		return true
	}
	return isSpace(c)
}

func parse(src string) ([]*node, error) {
	root := &node{kind: group}
	stack := []*node{root}
	space := false

	push := func(n *node) {
		n.space = space
		space = false
		top := stack[len(stack)-1]
		top.children = append(top.children, n)
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isSpace(c):
			space = true
			i++
		case c == '(' || c == '[' || c == '{':
			g := &node{kind: group, open: string(c), close: string(closers[c])}
			push(g)
			stack = append(stack, g)
			i++
		case c == ')' || c == ']' || c == '}':
			top := stack[len(stack)-1]
			if len(stack) == 1 || top.close != string(c) {
				return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, c, i)
			}
			top.closeSpace = space
			space = false
			stack = stack[:len(stack)-1]
			i++
		case c == ',':
			push(&node{kind: comma, text: ","})
			i++
		case c == '\'' || c == '"':
			n, err := scanString(src[i:])
			if err != nil {
				return nil, fmt.Errorf("%w at offset %d", err, i)
			}
			push(&node{kind: str, text: src[i : i+n]})
			i += n
		default:
			if n, _, ok := marker.ScanTag(src[i:]); ok {
				push(&node{kind: tag, text: src[i : i+n]})
				i += n
				continue
			}
			j := i
			for j < len(src) && !isDelim(src[j]) {
				if j > i {
					if _, _, ok := marker.ScanTag(src[j:]); ok {
						break
					}
				}
				j++
			}
			word := src[i:j]
			k := atom
			if _, ok := operators[word]; ok {
				k = op
			}
			push(&node{kind: k, text: word})
			i = j
		}
	}
	if len(stack) != 1 {
		top := stack[len(stack)-1]
		return nil, fmt.Errorf("%w: unclosed %q", ErrMalformed, top.open)
	}
	return root.children, nil
}

func scanString(s string) (int, error) {
	quote := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated string", ErrMalformed)
}

func needSpace(prev, next *node) bool {
	if next.kind == comma {
		return false
	}
	if prev.kind == comma {
		return true
	}
	return next.space
}

func width(n *node) int {
	switch n.kind {
	case tag:
		return 0
	case group:
		w := len(n.open) + len(n.close) + seqWidth(n.children)
		if n.closeSpace && len(n.children) > 0 {
			w++
		}
		return w
	default:
		return utf8.RuneCountInString(n.text)
	}
}

func seqWidth(nodes []*node) int {
	w := 0
	for i, n := range nodes {
		if i > 0 && needSpace(nodes[i-1], n) {
			w++
		} else if i == 0 && n.space {
			w++
		}
		w += width(n)
	}
	return w
}

// tailWidth is the width that has to stay on the same line as nodes[i]: the
// following tokens up to and including the next comma.
func tailWidth(nodes []*node, i int) int {
	w := 0
	for j := i + 1; j < len(nodes); j++ {
		n := nodes[j]
		if n.kind == op {
			break
		}
		if needSpace(nodes[j-1], n) {
			w++
		}
		w += width(n)
		if n.kind == comma {
			break
		}
	}
	return w
}

// elements splits the children of a broken group into lines: after every
// comma and before every operator.
func elements(nodes []*node) [][]*node {
	var (
		out [][]*node
		cur []*node
	)
	for _, n := range nodes {
		if n.kind == op && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, n)
		if n.kind == comma {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

type printer struct {
	style Style
	out   strings.Builder
	col   int
}

func (p *printer) write(s string) {
	p.out.WriteString(s)
	p.col += utf8.RuneCountInString(marker.Strip(s))
}

func (p *printer) newline(indent int) {
	p.out.WriteByte('\n')
	p.out.WriteString(strings.Repeat(" ", indent))
	p.col = indent
}

func (p *printer) seq(nodes []*node, indent int) {
	for i, n := range nodes {
		if i > 0 && needSpace(nodes[i-1], n) {
			p.write(" ")
		}
		if n.kind != group {
			p.write(n.text)
			continue
		}
		if p.col+width(n)+tailWidth(nodes, i) <= p.style.ColumnLimit || len(n.children) == 0 {
			p.flat(n)
			continue
		}
		p.broken(n, indent)
	}
}

func (p *printer) flat(n *node) {
	p.write(n.open)
	for i, c := range n.children {
		if (i > 0 && needSpace(n.children[i-1], c)) || (i == 0 && c.space) {
			p.write(" ")
		}
		if c.kind == group {
			p.flat(c)
		} else {
			p.write(c.text)
		}
	}
	if n.closeSpace && len(n.children) > 0 {
		p.write(" ")
	}
	p.write(n.close)
}

func (p *printer) broken(n *node, indent int) {
	inner := indent + p.style.Indent
	p.write(n.open)
	for _, elem := range elements(n.children) {
		p.newline(inner)
		p.seq(elem, inner)
	}
	p.newline(indent)
	p.write(n.close)
}
