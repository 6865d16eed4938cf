// package formatter renders curation results as chat reports and as CSV, Markdown or plain text exports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Export formats accepted by [WriteExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// ExportToCSV writes one row per track in playlist order with columns:
// Position, ID, Title, Artists, Album, Service, Contributor, Likes, Source
func ExportToCSV(stats *models.Stats) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artists", "Album", "Service", "Contributor", "Likes", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range stats.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.CatalogID,
			track.Title,
			track.ArtistNames("; "),
			track.Album,
			string(track.Service),
			track.Author.Name,
			strconv.Itoa(track.LikeWeight),
			track.SourceURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the playlist with its tally tables.
func ExportToMarkdown(stats *models.Stats, meta models.PlaylistMeta) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", meta.Name)
	if meta.URL != "" {
		fmt.Fprintf(&buf, "**Playlist**: %s\n", meta.URL)
	}
	fmt.Fprintf(&buf, "**Window**: %s to %s\n", meta.Window.From.Format("2006-01-02"), meta.Window.To.Format("2006-01-02"))
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(stats.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range stats.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s, shared by %s\n", i+1, track.ArtistNames(", "), track.Title, albumPart, track.Author.Name)
	}

	writeStatTable(&buf, "Contributors", stats.Contributors)
	writeStatTable(&buf, "Artists", stats.Artists)
	writeStatTable(&buf, "Genres", stats.Genres)

	return buf.Bytes(), nil
}

func writeStatTable(buf *bytes.Buffer, title string, stats []models.Stat) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(buf, "\n## %s\n\n| Name | Count |\n| --- | ---: |\n", title)
	for _, s := range stats {
		fmt.Fprintf(buf, "| %s | %d |\n", strings.ReplaceAll(s.DisplayName, "|", `\|`), s.Weight)
	}
}

// ExportToText renders the playlist as a numbered list.
func ExportToText(stats *models.Stats, meta models.PlaylistMeta) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", meta.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(stats.Tracks))

	for i, track := range stats.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistNames(", "), track.Title)
	}

	return buf.Bytes(), nil
}

// WriteExport renders stats in format and writes it to path.
//
// Defaults to mixtape_tracks.{csv,md,txt} when path is empty.
func WriteExport(format, path string, stats *models.Stats, meta models.PlaylistMeta) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case FormatCSV:
		data, err = ExportToCSV(stats)
		ext = "csv"
	case FormatMarkdown:
		data, err = ExportToMarkdown(stats, meta)
		ext = "md"
	case FormatText:
		data, err = ExportToText(stats, meta)
		ext = "txt"
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if path == "" {
		path = "mixtape_tracks." + ext
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}
