package curation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// DefaultPageSize is the number of messages requested per page.
const DefaultPageSize = 50

// MessageSource pages backwards through a channel.
type MessageSource interface {
	// MessagesBefore returns up to limit messages older than cursor, newest first.
	MessagesBefore(ctx context.Context, channelID string, cursor models.Cursor, limit int) ([]models.Message, error)
}

// FetchWindow returns every human-authored message in channelID created within
// [from, to], oldest first and without duplicates.
//
// The first page is requested by time, just past to. Each later page continues
// from the ID of the last message returned, so messages sharing a timestamp are
// never skipped at a page boundary. Fetching stops once a page reaches back
// before from, comes back short, or makes no progress.
func FetchWindow(ctx context.Context, src MessageSource, channelID string, from, to time.Time, pageSize int) ([]models.Message, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		collected []models.Message
		seen      = make(map[string]struct{})
		cursor    = models.Cursor{Before: to.Add(time.Millisecond)}
	)

	for {
		page, err := src.MessagesBefore(ctx, channelID, cursor, pageSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: page before %s: %w", shared.ErrTransport, describeCursor(cursor), err)
		}
		if len(page) == 0 {
			break
		}

		oldest := page[0].CreatedAt
		for _, m := range page {
			if m.CreatedAt.Before(oldest) {
				oldest = m.CreatedAt
			}
			if m.CreatedAt.Before(from) || m.CreatedAt.After(to) {
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			if !m.Author.Bot {
				collected = append(collected, m)
			}
		}

		last := page[len(page)-1].ID
		if oldest.Before(from) || len(page) < pageSize || last == cursor.BeforeID {
			break
		}
		cursor = models.Cursor{BeforeID: last}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].CreatedAt.Before(collected[j].CreatedAt)
	})
	return collected, nil
}

func describeCursor(c models.Cursor) string {
	if c.BeforeID != "" {
		return "message " + c.BeforeID
	}
	return c.Before.Format(time.RFC3339)
}
