// Package chat is the boundary to the messaging platform. The rest of the
// backend talks to the Transport interface and never assumes anything about
// delivery ordering from Subscribe; consumers re-merge the feed on every
// delivery instead of appending.
package chat

import (
	"context"

	"github.com/google/uuid"

	"taskbridge-backend/internal/models"
)

// Page is one slice of a project's message history, ascending by time.
// NextCursor is empty when the oldest message has been reached.
type Page struct {
	Messages   []models.ChatMessage
	NextCursor string
}

// Transport exposes the three operations the feed core consumes.
type Transport interface {
	// FetchPage returns messages older than the cursor (empty cursor means
	// newest page).
	FetchPage(ctx context.Context, projectID uuid.UUID, cursor string, limit int) (Page, error)

	// Send validates content against the content policy, persists the
	// message, and announces it. A policy rejection returns *policy.Violation
	// and nothing is stored.
	Send(ctx context.Context, projectID, senderID uuid.UUID, content, attachmentPath string) (*models.ChatMessage, error)

	// Subscribe registers fn for messages on the project and returns an
	// unsubscribe func. fn may be called from any goroutine.
	Subscribe(projectID uuid.UUID, fn func(models.ChatMessage)) func()
}
