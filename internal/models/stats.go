package models

import (
	"sort"
	"time"
)

// Stat is a weighted tally for a contributor, artist, genre or track.
type Stat struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Weight      int    `json:"weight"`
}

// SortStats orders stats by weight descending, then by display name so output is deterministic.
func SortStats(stats []Stat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Weight != stats[j].Weight {
			return stats[i].Weight > stats[j].Weight
		}
		return stats[i].DisplayName < stats[j].DisplayName
	})
}

// Stats is the aggregated result of one run.
type Stats struct {
	Tracks        []ResolvedTrack `json:"tracks"` // playlist insertion order
	Contributors  []Stat          `json:"contributors"`
	Artists       []Stat          `json:"artists"`
	Genres        []Stat          `json:"genres"`
	ServiceCounts map[Service]int `json:"service_counts"`
}

// TrackIDs returns the catalog IDs of Tracks in order.
func (s *Stats) TrackIDs() []string {
	ids := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.CatalogID
	}
	return ids
}

// Window is an inclusive time range.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// PlaylistMeta describes the playlist a report is about.
type PlaylistMeta struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Window Window `json:"window"`
}
