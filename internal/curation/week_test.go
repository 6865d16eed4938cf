package curation

import (
	"testing"
	"time"
)

func TestWeekWindow(t *testing.T) {
	tc := []struct {
		name     string
		now      time.Time
		weeksAgo int
		from     time.Time
	}{
		{
			name:     "wednesday last week",
			now:      time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC),
			weeksAgo: 1,
			from:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "sunday belongs to its own iso week",
			now:      time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC),
			weeksAgo: 1,
			from:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monday this week",
			now:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			weeksAgo: 0,
			from:     time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "across a year boundary",
			now:      time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
			weeksAgo: 1,
			from:     time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekWindow(tt.now, tt.weeksAgo)
			if !w.From.Equal(tt.from) {
				t.Errorf("From = %v, want %v", w.From, tt.from)
			}
			wantTo := tt.from.AddDate(0, 0, 7).Add(-time.Millisecond)
			if !w.To.Equal(wantTo) {
				t.Errorf("To = %v, want %v", w.To, wantTo)
			}
		})
	}
}

func TestPlaylistName(t *testing.T) {
	w := WeekWindow(time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC), 1)

	if got, want := PlaylistName("Weekly Mixtape", "", w), "Weekly Mixtape (4th March - 10th March)"; got != want {
		t.Errorf("PlaylistName() = %q, want %q", got, want)
	}
	if got, want := PlaylistName("Mix", "DD/MM/YYYY", w), "Mix (04/03/2024 - 10/03/2024)"; got != want {
		t.Errorf("PlaylistName() = %q, want %q", got, want)
	}
}

func TestFormatDate(t *testing.T) {
	at := time.Date(2024, 2, 22, 0, 0, 0, 0, time.UTC)

	tc := []struct {
		layout string
		want   string
	}{
		{"Do MMMM", "22nd February"},
		{"ddd D MMM YY", "Thu 22 Feb 24"},
		{"dddd [the] Do", "Thursday the 22nd"},
		{"M-D", "2-22"},
	}

	for _, tt := range tc {
		if got := FormatDate(at, tt.layout); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	tc := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 23: "23rd", 31: "31st", 101: "101st", 111: "111th"}
	for n, want := range tc {
		if got := Ordinal(n); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}
