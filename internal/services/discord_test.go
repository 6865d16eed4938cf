package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

type fakeDiscord struct {
	messages  []*discordgo.Message
	reactions map[string][]*discordgo.User
	sent      []string
	err       error

	lastBefore string
	lastLimit  int
	pages      map[string]int
}

func (f *fakeDiscord) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.lastBefore, f.lastLimit = beforeID, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func (f *fakeDiscord) MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error) {
	if f.pages == nil {
		f.pages = make(map[string]int)
	}
	f.pages[messageID+emojiID]++

	all := f.reactions[messageID+emojiID]
	start := 0
	if afterID != "" {
		for i, u := range all {
			if u.ID == afterID {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(all))
	return all[start:end], nil
}

func (f *fakeDiscord) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, channelID+": "+content)
	return &discordgo.Message{ID: "sent"}, nil
}

func TestSnowflakeFromTime(t *testing.T) {
	t.Run("epoch is zero", func(t *testing.T) {
		if got := SnowflakeFromTime(time.UnixMilli(discordEpoch)); got != "0" {
			t.Errorf("expected 0, got %s", got)
		}
	})

	t.Run("before epoch clamps to zero", func(t *testing.T) {
		if got := SnowflakeFromTime(time.Unix(0, 0)); got != "0" {
			t.Errorf("expected 0, got %s", got)
		}
	})

	t.Run("encodes milliseconds in the high bits", func(t *testing.T) {
		at := time.UnixMilli(discordEpoch + 1000)
		want := strconv.FormatUint(1000<<22, 10)
		if got := SnowflakeFromTime(at); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("is monotonic", func(t *testing.T) {
		a, _ := strconv.ParseUint(SnowflakeFromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), 10, 64)
		b, _ := strconv.ParseUint(SnowflakeFromTime(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)), 10, 64)
		if a >= b {
			t.Errorf("expected %d < %d", a, b)
		}
	})
}

func TestDiscordService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewDiscordService requires a token", func(t *testing.T) {
		if _, err := NewDiscordService(""); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("MessagesBefore", func(t *testing.T) {
		created := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
		fake := &fakeDiscord{
			messages: []*discordgo.Message{
				{
					ID: "2", Content: "https://open.spotify.com/track/AAA", Timestamp: created,
					Author: &discordgo.User{ID: "u1", Username: "alice", GlobalName: "Alice"},
					Reactions: []*discordgo.MessageReactions{
						{Count: 2, Emoji: &discordgo.Emoji{Name: models.LikeEmoji}},
						{Count: 1, Emoji: &discordgo.Emoji{Name: "🔥"}},
					},
				},
				{ID: "1", Content: "hi", Author: &discordgo.User{ID: "bot", Username: "mixtape", Bot: true}},
			},
			reactions: map[string][]*discordgo.User{
				"2" + models.LikeEmoji: {{ID: "u2", Username: "bob"}, {ID: "u3", Username: "carol"}},
			},
		}
		srv := newDiscordService(fake)

		before := created.Add(time.Hour)
		msgs, err := srv.MessagesBefore(ctx, "chan", models.Cursor{Before: before}, 500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if fake.lastLimit != maxMessagePage {
			t.Errorf("expected limit clamped to %d, got %d", maxMessagePage, fake.lastLimit)
		}
		if fake.lastBefore != SnowflakeFromTime(before) {
			t.Errorf("expected before cursor %s, got %s", SnowflakeFromTime(before), fake.lastBefore)
		}

		if _, err := srv.MessagesBefore(ctx, "chan", models.Cursor{Before: before, BeforeID: "1"}, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fake.lastBefore != "1" {
			t.Errorf("expected message ID cursor to win, got %s", fake.lastBefore)
		}
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}

		first := msgs[0]
		if first.Author.Name != "Alice" || !first.CreatedAt.Equal(created) {
			t.Errorf("unexpected message: %+v", first)
		}
		if got := len(first.Reactions[models.LikeEmoji]); got != 2 {
			t.Errorf("expected 2 likers, got %d", got)
		}
		if _, ok := first.Reactions["🔥"]; ok {
			t.Error("untracked emoji should be ignored")
		}
		if !msgs[1].Author.Bot || msgs[1].Author.Name != "mixtape" {
			t.Errorf("expected bot author with username fallback, got %+v", msgs[1].Author)
		}
	})

	t.Run("reactors page through every user", func(t *testing.T) {
		users := make([]*discordgo.User, 0, 150)
		for i := range 150 {
			users = append(users, &discordgo.User{ID: fmt.Sprintf("u%03d", i)})
		}
		fake := &fakeDiscord{
			messages: []*discordgo.Message{{
				ID: "m", Author: &discordgo.User{ID: "a"},
				Reactions: []*discordgo.MessageReactions{{Count: 150, Emoji: &discordgo.Emoji{Name: models.DislikeEmoji}}},
			}},
			reactions: map[string][]*discordgo.User{"m" + models.DislikeEmoji: users},
		}
		srv := newDiscordService(fake)

		msgs, err := srv.MessagesBefore(ctx, "chan", models.Cursor{Before: time.Now()}, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(msgs[0].Reactions[models.DislikeEmoji]); got != 150 {
			t.Errorf("expected 150 reactors, got %d", got)
		}
		if got := fake.pages["m"+models.DislikeEmoji]; got != 2 {
			t.Errorf("expected 2 reaction pages, got %d", got)
		}
	})

	t.Run("TrackReactions replaces the tracked set", func(t *testing.T) {
		fake := &fakeDiscord{
			messages: []*discordgo.Message{{
				ID: "m", Author: &discordgo.User{ID: "a"},
				Reactions: []*discordgo.MessageReactions{{Count: 1, Emoji: &discordgo.Emoji{Name: models.LikeEmoji}}},
			}},
		}
		srv := newDiscordService(fake)
		srv.TrackReactions("🔥")

		msgs, err := srv.MessagesBefore(ctx, "chan", models.Cursor{Before: time.Now()}, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msgs[0].Reactions != nil {
			t.Errorf("expected no reactions, got %v", msgs[0].Reactions)
		}
	})

	t.Run("transport errors", func(t *testing.T) {
		srv := newDiscordService(&fakeDiscord{err: errors.New("connection reset")})

		if _, err := srv.MessagesBefore(ctx, "chan", models.Cursor{Before: time.Now()}, 10); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if err := srv.SendMessage(ctx, "chan", "hello"); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("SendMessage", func(t *testing.T) {
		fake := &fakeDiscord{}
		srv := newDiscordService(fake)

		if err := srv.SendMessage(ctx, "reports", "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fake.sent) != 1 || fake.sent[0] != "reports: hello" {
			t.Errorf("unexpected sent messages: %v", fake.sent)
		}
	})
}
