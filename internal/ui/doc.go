// Package ui styles the command line output of mixtape with lipgloss.
//
// A [Palette] holds the handful of styles the commands use: titles, success and
// failure markers, warnings and muted help text. [Default] is the palette the
// CLI renders with. [Palette.Summary] lays out key/value rows with aligned labels.
package ui
