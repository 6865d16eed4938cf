package models

import "time"

// Reaction emoji that carry weight in ranking.
const (
	LikeEmoji    = "👍"
	DislikeEmoji = "👎"
)

// User is a chat account. Bots never count toward reaction weights.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot"`
}

// Mention renders the user in chat mention syntax.
func (u User) Mention() string {
	return "<@" + u.ID + ">"
}

// Message is a single chat message with the users behind each reaction.
type Message struct {
	ID        string            `json:"id"`
	Author    User              `json:"author"`
	CreatedAt time.Time         `json:"created_at"`
	Content   string            `json:"content"`
	Reactions map[string][]User `json:"reactions,omitempty"`
}

// ReactionWeight counts distinct human reactors for emoji, ignoring the message author.
func (m Message) ReactionWeight(emoji string) int {
	seen := make(map[string]struct{})
	for _, u := range m.Reactions[emoji] {
		if u.Bot || u.ID == m.Author.ID {
			continue
		}
		seen[u.ID] = struct{}{}
	}
	return len(seen)
}

// Cursor positions a backwards page request. BeforeID takes precedence over Before when set.
type Cursor struct {
	Before   time.Time
	BeforeID string
}
