// Package report summarises event contexts as markdown, for humans reading a
// terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/casualjim/evctx/dslfmt"
	"github.com/casualjim/evctx/events"
	"github.com/casualjim/evctx/marker"
	"github.com/casualjim/evctx/messages"
	"github.com/charmbracelet/glamour"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row summarises the events of one message kind.
type Row struct {
	Message string
	ID      messages.ID
	Count   int
	Last    *events.Event
}

// Summarise groups the events of q by message kind, in the order the kinds
// first occur.
func Summarise(q events.Queryable) []Row {
	groups := orderedmap.New[messages.ID, *Row]()
	for e := range q.All() {
		row, ok := groups.Get(e.Origin())
		if !ok {
			name := "<nil>"
			if e.Message() != nil {
				name = e.Message().FullName()
			}
			row = &Row{Message: name, ID: e.Origin()}
			groups.Set(e.Origin(), row)
		}
		row.Count++
		row.Last = e
	}

	rows := make([]Row, 0, groups.Len())
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, *pair.Value)
	}
	return rows
}

// Markdown renders a summary table of q followed by its laid out expression.
func Markdown(title string, q events.Queryable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if q.Empty() {
		b.WriteString("_No events._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d events.\n\n", q.Len())
	b.WriteString("| Message | ID | Count | Last |\n")
	b.WriteString("|---|---|---:|---|\n")
	for _, row := range Summarise(q) {
		fmt.Fprintf(&b, "| %s | `%s` | %d | `%s` |\n", row.Message, row.ID, row.Count, cell(row.Last.String()))
	}

	expr := q.Expression()
	if formatted, err := dslfmt.Format(expr); err == nil {
		expr = formatted
	}
	b.WriteString("\n```\n")
	b.WriteString(marker.Strip(expr))
	b.WriteString("\n```\n")
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render renders markdown for the terminal with a glamour style: "dark",
// "light", "notty" and so on. An empty style picks one from the terminal
// background.
func Render(md, style string, width int) (string, error) {
	options := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}
