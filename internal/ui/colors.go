package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Default is the palette used by the CLI, built around Spotify green.
var Default = NewPalette("#7D56F4", "#1DB954", "#FF5F5F", "#FFA500", "#626262")

// Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		label: NewStyle(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// OK renders s behind a check mark.
func (p *Palette) OK(s string) string { return p.ok.Render("✓") + " " + s }

// Fail renders s behind a cross.
func (p *Palette) Fail(s string) string { return p.err.Render("✗") + " " + s }

// Warn renders s behind a warning sign.
func (p *Palette) Warn(s string) string { return p.warn.Render("⚠ " + s) }

// Row is one line of a [Palette.Summary].
type Row struct {
	Label string
	Value any
}

// Summary renders rows as "label  value" lines with the labels padded to a common width.
func (p *Palette) Summary(rows ...Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	var b strings.Builder
	for _, r := range rows {
		label := r.Label + strings.Repeat(" ", width-lipgloss.Width(r.Label))
		fmt.Fprintf(&b, "  %s  %v\n", p.label.Render(label), r.Value)
	}
	return b.String()
}
