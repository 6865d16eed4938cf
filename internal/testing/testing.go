// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// FakeChat is an in-memory chat channel that honors the "before" cursor and page limit.
type FakeChat struct {
	mu       sync.Mutex
	messages map[string][]models.Message

	// Err is returned by MessagesBefore once FailAfter pages have been served.
	Err       error
	FailAfter int
	SendErr   error

	Pages int
	Sent  map[string][]string
}

func NewFakeChat() *FakeChat {
	return &FakeChat{messages: make(map[string][]models.Message), Sent: make(map[string][]string)}
}

// Post adds messages to a channel.
func (f *FakeChat) Post(channelID string, msgs ...models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], msgs...)
}

// MessagesBefore orders the channel newest first, later posts first among equal timestamps.
// A BeforeID cursor returns what follows that message; an unknown ID yields an empty page.
func (f *FakeChat) MessagesBefore(ctx context.Context, channelID string, cursor models.Cursor, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil && f.Pages >= f.FailAfter {
		return nil, f.Err
	}
	f.Pages++

	all := slices.Clone(f.messages[channelID])
	slices.Reverse(all)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	var page []models.Message
	if cursor.BeforeID != "" {
		idx := slices.IndexFunc(all, func(m models.Message) bool { return m.ID == cursor.BeforeID })
		if idx < 0 {
			return nil, nil
		}
		page = all[idx+1:]
	} else {
		for _, m := range all {
			if m.CreatedAt.Before(cursor.Before) {
				page = append(page, m)
			}
		}
	}
	if len(page) > limit {
		page = page[:limit]
	}
	return slices.Clone(page), nil
}

func (f *FakeChat) SendMessage(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent[channelID] = append(f.Sent[channelID], content)
	return nil
}

// FakeCatalog is an in-memory music catalog with mutable playlists.
// Every call is recorded so tests can assert on what the pipeline asked for.
type FakeCatalog struct {
	mu sync.Mutex

	Tracks        map[string]models.Track
	SearchResults map[string][]models.Track
	ArtistRecords map[string]models.Artist
	Playlists     map[string][]string
	Names         map[string]string

	// Err fails every call; ArtistErr fails only artist lookups.
	Err       error
	ArtistErr error
	// StuckRemove makes removals succeed without changing the playlist.
	StuckRemove bool

	TrackCalls  []string
	Searches    []string
	ArtistCalls [][]string
	Removals    [][]string
	Additions   [][]string
	Renames     []string
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Tracks:        make(map[string]models.Track),
		SearchResults: make(map[string][]models.Track),
		ArtistRecords: make(map[string]models.Artist),
		Playlists:     make(map[string][]string),
		Names:         make(map[string]string),
	}
}

// AddTrack registers a track for lookup by ID.
func (f *FakeCatalog) AddTrack(t models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tracks[t.ID] = t
}

// AddArtist registers a full artist record.
func (f *FakeCatalog) AddArtist(a models.Artist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ArtistRecords[a.ID] = a
}

// Playlist returns a copy of a playlist's track IDs.
func (f *FakeCatalog) Playlist(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Playlists[id])
}

func (f *FakeCatalog) Name() string { return "fake" }

func (f *FakeCatalog) Track(ctx context.Context, trackID string) (*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TrackCalls = append(f.TrackCalls, trackID)
	if f.Err != nil {
		return nil, f.Err
	}
	t, ok := f.Tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return &t, nil
}

func (f *FakeCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Searches = append(f.Searches, query)
	if f.Err != nil {
		return nil, f.Err
	}
	results := f.SearchResults[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return slices.Clone(results), nil
}

func (f *FakeCatalog) Artists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ArtistCalls = append(f.ArtistCalls, slices.Clone(artistIDs))
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ArtistErr != nil {
		return nil, f.ArtistErr
	}
	if len(artistIDs) > 50 {
		return nil, fmt.Errorf("%w: too many artist IDs", shared.ErrInvalidArgument)
	}

	var artists []models.Artist
	for _, id := range artistIDs {
		if a, ok := f.ArtistRecords[id]; ok {
			artists = append(artists, a)
		}
	}
	return artists, nil
}

func (f *FakeCatalog) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	ids, ok := f.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return slices.Clone(ids), nil
}

func (f *FakeCatalog) RemovePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	if len(trackIDs) > 100 {
		return fmt.Errorf("%w: too many tracks", shared.ErrInvalidArgument)
	}
	f.Removals = append(f.Removals, slices.Clone(trackIDs))
	if f.StuckRemove {
		return nil
	}

	f.Playlists[playlistID] = slices.DeleteFunc(f.Playlists[playlistID], func(id string) bool {
		return slices.Contains(trackIDs, id)
	})
	return nil
}

func (f *FakeCatalog) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	if len(trackIDs) > 100 {
		return fmt.Errorf("%w: too many tracks", shared.ErrInvalidArgument)
	}
	f.Additions = append(f.Additions, slices.Clone(trackIDs))
	f.Playlists[playlistID] = append(f.Playlists[playlistID], trackIDs...)
	return nil
}

func (f *FakeCatalog) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	f.Renames = append(f.Renames, name)
	f.Names[playlistID] = name
	return nil
}

// FakeTitles maps page URLs to scraped titles and counts lookups.
type FakeTitles struct {
	mu     sync.Mutex
	titles map[string]string
	Calls  int
}

func NewFakeTitles(titles map[string]string) *FakeTitles {
	return &FakeTitles{titles: titles}
}

func (f *FakeTitles) Title(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	title, ok := f.titles[url]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrNoTitle, url)
	}
	return title, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// Message builds a chat message authored by authorID at the given time.
func Message(id, authorID, content string, at time.Time) models.Message {
	return models.Message{
		ID:        id,
		Author:    models.User{ID: authorID, Name: authorID},
		CreatedAt: at,
		Content:   content,
	}
}

// React adds reactions from the given user IDs.
func React(m models.Message, emoji string, userIDs ...string) models.Message {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]models.User)
	}
	for _, id := range userIDs {
		m.Reactions[emoji] = append(m.Reactions[emoji], models.User{ID: id, Name: id})
	}
	return m
}

func MustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("Failed to parse time %s: %v", value, err)
	}
	return parsed
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
