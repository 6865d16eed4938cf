package formatter

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/mixtape/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DiscordMessageLimit is the longest message Discord accepts.
const DiscordMessageLimit = 2000

// ReportOptions sets section sizes and qualifying thresholds.
type ReportOptions struct {
	TopN           int
	MinArtistCount int
	MinLikes       int
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{TopN: 5, MinArtistCount: 2, MinLikes: 1}
}

// ComposeReport renders the weekly digest in Discord markdown.
//
// Sections with no qualifying entries are left out.
func ComposeReport(stats *models.Stats, meta models.PlaylistMeta, opts ReportOptions) string {
	if opts.TopN <= 0 {
		opts.TopN = DefaultReportOptions().TopN
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s is now available for listening!**\n", meta.Name)
	fmt.Fprintf(&b, "_Shared between %s and %s._\n", meta.Window.From.Format("Mon 2 January"), meta.Window.To.Format("Mon 2 January 2006"))

	writeSection(&b, "Top artists", topArtists(stats, opts))
	writeSection(&b, "Top genres", topGenres(stats, opts))
	writeSection(&b, "Most liked", mostLiked(stats, opts))
	writeSection(&b, "This week's top curators", topCurators(stats, opts))

	fmt.Fprintf(&b, "\n%s from %s this week.\n", plural(len(stats.Tracks), "track"), plural(len(stats.Contributors), "curator"))
	if meta.URL != "" {
		fmt.Fprintf(&b, "Listen now!\n%s\n", meta.URL)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n", title)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func topArtists(stats *models.Stats, opts ReportOptions) []string {
	var lines []string
	for _, s := range stats.Artists {
		if len(lines) == opts.TopN {
			break
		}
		if s.Weight < opts.MinArtistCount {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", len(lines)+1, s.DisplayName, plural(s.Weight, "track")))
	}
	return lines
}

// topGenres reports each genre's share of all artist occurrences.
func topGenres(stats *models.Stats, opts ReportOptions) []string {
	total := 0
	for _, s := range stats.Artists {
		total += s.Weight
	}
	if total == 0 {
		return nil
	}

	caser := cases.Title(language.English)
	var lines []string
	for _, s := range stats.Genres {
		if len(lines) == opts.TopN {
			break
		}
		share := int(math.Round(100 * float64(s.Weight) / float64(total)))
		lines = append(lines, fmt.Sprintf("%d. %s (%d%%)", len(lines)+1, caser.String(s.DisplayName), share))
	}
	return lines
}

func mostLiked(stats *models.Stats, opts ReportOptions) []string {
	minLikes := max(opts.MinLikes, 1)
	liked := slices.DeleteFunc(slices.Clone(stats.Tracks), func(t models.ResolvedTrack) bool {
		return t.LikeWeight < minLikes
	})
	sort.SliceStable(liked, func(i, j int) bool {
		if liked[i].LikeWeight != liked[j].LikeWeight {
			return liked[i].LikeWeight > liked[j].LikeWeight
		}
		return liked[i].Discovered < liked[j].Discovered
	})

	var lines []string
	for _, t := range liked[:min(len(liked), opts.TopN)] {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s, shared by %s)",
			len(lines)+1, t.ArtistNames(", "), t.Title, plural(t.LikeWeight, "like"), mention(t.Author)))
	}
	return lines
}

func topCurators(stats *models.Stats, opts ReportOptions) []string {
	var lines []string
	for _, s := range stats.Contributors[:min(len(stats.Contributors), opts.TopN)] {
		lines = append(lines, fmt.Sprintf("- <@%s> (%s)", s.Key, plural(s.Weight, "contribution")))
	}
	return lines
}

func mention(u models.User) string {
	if u.ID == "" {
		return u.Name
	}
	return u.Mention()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// SplitMessage breaks content into chunks of at most limit runes, preferring line boundaries.
// Lines longer than limit are cut.
func SplitMessage(content string, limit int) []string {
	if limit <= 0 {
		limit = DiscordMessageLimit
	}
	if utf8.RuneCountInString(content) <= limit {
		return []string{content}
	}

	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if chunk := strings.TrimRight(current.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(content, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		current.WriteString(line)
		size += n
	}
	flush()
	return chunks
}
