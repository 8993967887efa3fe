// Package feed builds the unified project activity feed: the chronological
// interleaving of chat messages and timeline events shown on every project
// detail screen. The merge is a pure computation over whatever snapshots the
// caller holds; nothing here talks to the network or keeps hidden state.
package feed

import (
	"time"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/status"
)

// Kind tags a feed entry for rendering.
type Kind string

const (
	KindMessage Kind = "message"
	KindEvent   Kind = "event"
)

// RenderHint tells a consumer how to present an entry without re-deriving
// status classification. Messages carry no hint; alignment is the
// consumer's call based on Entry sender vs. the viewing user.
type RenderHint struct {
	Label    string
	Emphasis status.Emphasis
}

// Entry is one row of the merged feed. Exactly one of Message and Event is
// set, matching Kind.
type Entry struct {
	Timestamp time.Time
	Kind      Kind
	Message   *models.ChatMessage
	Event     *models.TimelineEvent
	Hint      RenderHint
}
