package curation

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
)

// DefaultDateFormat renders dates like "4th March".
const DefaultDateFormat = "Do MMMM"

// WeekWindow returns the ISO week (Monday 00:00 through Sunday 23:59:59.999)
// that lies weeksAgo weeks before the week containing now, in now's location.
func WeekWindow(now time.Time, weeksAgo int) models.Window {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	from := time.Date(y, m, d-offset-7*weeksAgo, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 7).Add(-time.Millisecond)
	return models.Window{From: from, To: to}
}

// PlaylistName renders "<base> (<from> - <to>)" using a moment-style date layout.
func PlaylistName(base, layout string, w models.Window) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	return fmt.Sprintf("%s (%s - %s)", base, FormatDate(w.From, layout), FormatDate(w.To, layout))
}

// dateTokens are matched longest first.
var dateTokens = []struct {
	token  string
	format func(time.Time) string
}{
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMMM", func(t time.Time) string { return t.Month().String() }},
	{"dddd", func(t time.Time) string { return t.Weekday().String() }},
	{"MMM", func(t time.Time) string { return t.Month().String()[:3] }},
	{"ddd", func(t time.Time) string { return t.Weekday().String()[:3] }},
	{"YY", func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"Do", func(t time.Time) string { return Ordinal(t.Day()) }},
	{"M", func(t time.Time) string { return fmt.Sprint(int(t.Month())) }},
	{"D", func(t time.Time) string { return fmt.Sprint(t.Day()) }},
}

// FormatDate formats t with moment.js tokens (YYYY, YY, MMMM, MMM, MM, M, DD, Do, D, dddd, ddd).
// Text inside square brackets is copied literally.
func FormatDate(t time.Time, layout string) string {
	var b strings.Builder
	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			if end := strings.IndexByte(layout[i:], ']'); end > 0 {
				b.WriteString(layout[i+1 : i+end])
				i += end + 1
				continue
			}
		}

		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(layout[i:], tok.token) {
				b.WriteString(tok.format(t))
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(layout[i])
			i++
		}
	}
	return b.String()
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
