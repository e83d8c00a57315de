package marker

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func TestMarkerTags(t *testing.T) {
	m := New(color.FgGreen)
	assert.Equal(t, "⦃32⦄", m.Begin())
	assert.Equal(t, "⦃/⦄", m.End())
	assert.Equal(t, color.FgGreen, m.Attribute())

	n, name, ok := ScanTag(m.Begin() + "M1()")
	assert.True(t, ok)
	assert.Equal(t, len(m.Begin()), n)
	assert.Equal(t, "32", name)

	n, name, ok = ScanTag(m.End())
	assert.True(t, ok)
	assert.Equal(t, len(m.End()), n)
	assert.Equal(t, "/", name)
}

func TestScanTagRejects(t *testing.T) {
	for _, text := range []string{"", "M1()", "⦃green⦄", "⦃32", "x⦃32⦄"} {
		_, _, ok := ScanTag(text)
		assert.False(t, ok, text)
	}
}

func TestColorize(t *testing.T) {
	t.Run("without tags text is unchanged", func(t *testing.T) {
		withColor(t, true)
		assert.Equal(t, "M1(x=1)", Colorize("M1(x=1)"))
	})

	t.Run("tagged spans are coloured", func(t *testing.T) {
		withColor(t, true)
		m := Matched
		got := m.Colorize("[" + m.Begin() + "M1(x=1)" + m.End() + ", M2()]")
		want := "[" + color.New(color.FgGreen).Sprint("M1(x=1)") + ", M2()]"
		assert.Equal(t, want, got)
	})

	t.Run("nested spans use the innermost colour", func(t *testing.T) {
		withColor(t, true)
		got := Colorize(Pending.Begin() + "a" + Unmatched.Begin() + "b" + Unmatched.End() + "c" + Pending.End())
		want := color.New(color.FgYellow).Sprint("a") +
			color.New(color.FgRed).Sprint("b") +
			color.New(color.FgYellow).Sprint("c")
		assert.Equal(t, want, got)
	})

	t.Run("tags are stripped when colour is disabled", func(t *testing.T) {
		withColor(t, false)
		got := Colorize("( " + Matched.Begin() + "M1(x=1)" + Matched.End() + " and M3() )")
		assert.Equal(t, "( M1(x=1) and M3() )", got)
	})
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "M1(x=1)", Strip(Unmatched.Begin()+"M1(x=1)"+Unmatched.End()))
	assert.Equal(t, "plain", Strip("plain"))
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want *Marker
		ok   bool
	}{
		{name: "green", want: Matched, ok: true},
		{name: "Matched", want: Matched, ok: true},
		{name: "red", want: Unmatched, ok: true},
		{name: " yellow ", want: Pending, ok: true},
		{name: "pending", want: Pending, ok: true},
		{name: "blue", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ByName(tt.name)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			assert.Same(t, tt.want, got)
		})
	}
}
