package feed_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/status"
)

var feedEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return feedEpoch.Add(time.Duration(seconds) * time.Second)
}

func message(t time.Time, content string) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		ProjectID: uuid.Nil,
		SenderID:  uuid.New(),
		Content:   content,
		CreatedAt: t,
	}
}

func statusEvent(t time.Time, toStatus string) models.TimelineEvent {
	return models.TimelineEvent{
		ID:        uuid.New(),
		Kind:      models.EventKindStatusChange,
		ToStatus:  sql.NullString{String: toStatus, Valid: true},
		CreatedAt: t,
	}
}

func newMerger() *feed.Merger {
	return feed.NewMerger(status.Default())
}

func TestMergeInterleavesByTimestamp(t *testing.T) {
	merger := newMerger()

	messages := []models.ChatMessage{
		message(at(10), "hi"),
		message(at(30), "thanks"),
	}
	events := []models.TimelineEvent{
		statusEvent(at(20), "paid"),
	}

	entries := merger.Merge(messages, events)
	require.Len(t, entries, 3)

	assert.Equal(t, feed.KindMessage, entries[0].Kind)
	assert.Equal(t, "hi", entries[0].Message.Content)
	assert.Equal(t, feed.KindEvent, entries[1].Kind)
	assert.Equal(t, "paid", entries[1].Event.ToStatus.String)
	assert.Equal(t, feed.KindMessage, entries[2].Kind)
	assert.Equal(t, "thanks", entries[2].Message.Content)
}

func TestMergeTieBreakEventBeforeMessage(t *testing.T) {
	merger := newMerger()

	messages := []models.ChatMessage{message(at(50), "payment done")}
	events := []models.TimelineEvent{statusEvent(at(50), "paid")}

	entries := merger.Merge(messages, events)
	require.Len(t, entries, 2)
	assert.Equal(t, feed.KindEvent, entries[0].Kind)
	assert.Equal(t, feed.KindMessage, entries[1].Kind)

	// Same result regardless of which collection is longer or how the
	// caller happened to order arguments' contents.
	entries = merger.Merge(
		[]models.ChatMessage{message(at(50), "a"), message(at(50), "b")},
		[]models.TimelineEvent{statusEvent(at(50), "paid")},
	)
	require.Len(t, entries, 3)
	assert.Equal(t, feed.KindEvent, entries[0].Kind)
}

func TestMergeTotality(t *testing.T) {
	merger := newMerger()

	messages := []models.ChatMessage{
		message(at(5), "one"), message(at(15), "two"), message(at(15), "three"),
	}
	events := []models.TimelineEvent{
		statusEvent(at(1), "submitted"), statusEvent(at(15), "analyzing"),
	}

	entries := merger.Merge(messages, events)
	assert.Len(t, entries, len(messages)+len(events))
}

func TestMergeEmptyInputs(t *testing.T) {
	merger := newMerger()

	assert.Empty(t, merger.Merge(nil, nil))

	onlyMessages := merger.Merge([]models.ChatMessage{message(at(1), "solo")}, nil)
	require.Len(t, onlyMessages, 1)
	assert.Equal(t, feed.KindMessage, onlyMessages[0].Kind)

	onlyEvents := merger.Merge(nil, []models.TimelineEvent{statusEvent(at(1), "submitted")})
	require.Len(t, onlyEvents, 1)
	assert.Equal(t, feed.KindEvent, onlyEvents[0].Kind)
}

func TestMergeIdempotent(t *testing.T) {
	merger := newMerger()

	messages := []models.ChatMessage{
		message(at(10), "a"), message(at(20), "b"), message(at(20), "c"),
	}
	events := []models.TimelineEvent{
		statusEvent(at(10), "paid"), statusEvent(at(25), "assigned"),
	}

	first := merger.Merge(messages, events)
	second := merger.Merge(messages, events)
	assert.Equal(t, first, second)
}

func TestMergeToleratesUnsortedInput(t *testing.T) {
	merger := newMerger()

	sortedMessages := []models.ChatMessage{
		message(at(10), "a"), message(at(20), "b"), message(at(30), "c"),
	}
	sortedEvents := []models.TimelineEvent{
		statusEvent(at(5), "submitted"), statusEvent(at(25), "analyzing"),
	}

	shuffledMessages := []models.ChatMessage{
		sortedMessages[2], sortedMessages[0], sortedMessages[1],
	}
	shuffledEvents := []models.TimelineEvent{
		sortedEvents[1], sortedEvents[0],
	}

	assert.Equal(t,
		merger.Merge(sortedMessages, sortedEvents),
		merger.Merge(shuffledMessages, shuffledEvents),
	)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	merger := newMerger()

	messages := []models.ChatMessage{
		message(at(30), "late"), message(at(10), "early"),
	}
	events := []models.TimelineEvent{
		statusEvent(at(20), "paid"), statusEvent(at(5), "submitted"),
	}

	merger.Merge(messages, events)

	assert.Equal(t, "late", messages[0].Content)
	assert.Equal(t, "paid", events[0].ToStatus.String)
}

func TestMergeStableWithinKind(t *testing.T) {
	merger := newMerger()

	first := message(at(40), "first")
	second := message(at(40), "second")

	entries := merger.Merge([]models.ChatMessage{first, second}, nil)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message.Content)
	assert.Equal(t, "second", entries[1].Message.Content)
}

func TestEventEntriesCarryRenderHints(t *testing.T) {
	merger := newMerger()

	events := []models.TimelineEvent{
		statusEvent(at(1), "paid"),
		statusEvent(at(2), "qc_rejected"),
		statusEvent(at(3), "analyzing"),
		statusEvent(at(4), "brand_new_backend_state"),
		{
			ID:          uuid.New(),
			Kind:        models.EventKindQuote,
			AmountCents: sql.NullInt64{Int64: 15000, Valid: true},
			CreatedAt:   at(5),
		},
	}

	entries := merger.Merge(nil, events)
	require.Len(t, entries, 5)

	assert.Equal(t, "Paid", entries[0].Hint.Label)
	assert.Equal(t, status.EmphasisCelebrate, entries[0].Hint.Emphasis)

	assert.Equal(t, "Revision Needed", entries[1].Hint.Label)
	assert.Equal(t, status.EmphasisAlert, entries[1].Hint.Emphasis)

	assert.Equal(t, "Analyzing", entries[2].Hint.Label)
	assert.Equal(t, status.EmphasisNotice, entries[2].Hint.Emphasis)

	// Unknown codes humanize instead of failing to render.
	assert.Equal(t, "Brand New Backend State", entries[3].Hint.Label)
	assert.Equal(t, status.EmphasisNotice, entries[3].Hint.Emphasis)

	assert.Equal(t, "New Quote", entries[4].Hint.Label)
}

func TestMessageEntriesHaveNoHint(t *testing.T) {
	merger := newMerger()

	entries := merger.Merge([]models.ChatMessage{message(at(1), "hello")}, nil)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Hint.Label)
}
