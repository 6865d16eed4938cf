package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// discordEpoch is the first millisecond of 2015, the zero point of Discord snowflakes.
const discordEpoch int64 = 1420070400000

const (
	maxMessagePage  = 100
	maxReactionPage = 100
)

// SnowflakeFromTime returns the smallest snowflake that could have been issued at t.
//
// Used as a "before" cursor it selects messages strictly older than t.
func SnowflakeFromTime(t time.Time) string {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatUint(uint64(ms)<<22, 10)
}

// discordAPI is the subset of [discordgo.Session] the chat client uses.
type discordAPI interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordService implements [Chat] over the Discord REST API with a bot token.
type DiscordService struct {
	api     discordAPI
	tracked map[string]bool
}

// NewDiscordService creates a bot session. No gateway connection is opened; only REST calls are made.
func NewDiscordService(token string) (*DiscordService, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing discord token", shared.ErrMissingCredentials)
	}

	session, err := discordgo.New("Bot " + strings.TrimPrefix(token, "Bot "))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return newDiscordService(session), nil
}

func newDiscordService(api discordAPI) *DiscordService {
	return &DiscordService{
		api:     api,
		tracked: map[string]bool{models.LikeEmoji: true, models.DislikeEmoji: true},
	}
}

// TrackReactions sets which emoji have their reacting users enumerated. Other reactions are ignored.
func (d *DiscordService) TrackReactions(emoji ...string) {
	d.tracked = make(map[string]bool, len(emoji))
	for _, e := range emoji {
		d.tracked[e] = true
	}
}

func (d *DiscordService) Name() string { return "Discord" }

// MessagesBefore returns up to limit messages older than cursor, newest first.
// A message ID cursor is passed through as is; a time cursor is converted to a snowflake.
func (d *DiscordService) MessagesBefore(ctx context.Context, channelID string, cursor models.Cursor, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > maxMessagePage {
		limit = maxMessagePage
	}

	beforeID := cursor.BeforeID
	if beforeID == "" {
		beforeID = SnowflakeFromTime(cursor.Before)
	}

	page, err := d.api.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch messages from %s: %w", shared.ErrTransport, channelID, err)
	}

	messages := make([]models.Message, 0, len(page))
	for _, m := range page {
		msg, err := d.convert(ctx, channelID, m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (d *DiscordService) convert(ctx context.Context, channelID string, m *discordgo.Message) (models.Message, error) {
	msg := models.Message{
		ID:        m.ID,
		CreatedAt: m.Timestamp,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.Author = toUser(m.Author)
	}

	for _, r := range m.Reactions {
		if r.Emoji == nil || !d.tracked[r.Emoji.Name] || r.Count == 0 {
			continue
		}

		users, err := d.reactors(ctx, channelID, m.ID, r.Emoji.APIName())
		if err != nil {
			return msg, err
		}
		if msg.Reactions == nil {
			msg.Reactions = make(map[string][]models.User)
		}
		msg.Reactions[r.Emoji.Name] = users
	}
	return msg, nil
}

// reactors pages through every user who reacted with emoji.
func (d *DiscordService) reactors(ctx context.Context, channelID, messageID, emoji string) ([]models.User, error) {
	var (
		users []models.User
		after string
	)
	for {
		page, err := d.api.MessageReactions(channelID, messageID, emoji, maxReactionPage, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s reactions on %s: %w", shared.ErrTransport, emoji, messageID, err)
		}
		for _, u := range page {
			users = append(users, toUser(u))
		}
		if len(page) < maxReactionPage {
			return users, nil
		}
		after = page[len(page)-1].ID
	}
}

// SendMessage posts content to a channel.
func (d *DiscordService) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := d.api.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: send message to %s: %w", shared.ErrTransport, channelID, err)
	}
	return nil
}

func toUser(u *discordgo.User) models.User {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return models.User{ID: u.ID, Name: name, Bot: u.Bot}
}
