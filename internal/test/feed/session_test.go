package feed_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/models"
)

type funcSource struct {
	messages func(ctx context.Context, projectID uuid.UUID) ([]models.ChatMessage, error)
	events   func(ctx context.Context, projectID uuid.UUID) ([]models.TimelineEvent, error)
}

func (s funcSource) Messages(ctx context.Context, projectID uuid.UUID) ([]models.ChatMessage, error) {
	return s.messages(ctx, projectID)
}

func (s funcSource) Events(ctx context.Context, projectID uuid.UUID) ([]models.TimelineEvent, error) {
	return s.events(ctx, projectID)
}

func staticSource(messages []models.ChatMessage, events []models.TimelineEvent) funcSource {
	return funcSource{
		messages: func(context.Context, uuid.UUID) ([]models.ChatMessage, error) {
			return messages, nil
		},
		events: func(context.Context, uuid.UUID) ([]models.TimelineEvent, error) {
			return events, nil
		},
	}
}

func TestSessionRefreshBuildsFeed(t *testing.T) {
	source := staticSource(
		[]models.ChatMessage{message(at(10), "hello")},
		[]models.TimelineEvent{statusEvent(at(5), "submitted")},
	)
	session := feed.NewSession(uuid.New(), source, newMerger())
	defer session.Close()

	entries, err := session.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, feed.KindEvent, entries[0].Kind)
	assert.Equal(t, feed.KindMessage, entries[1].Kind)

	assert.Equal(t, entries, session.Entries())
}

func TestSessionRefreshPropagatesSourceError(t *testing.T) {
	source := funcSource{
		messages: func(context.Context, uuid.UUID) ([]models.ChatMessage, error) {
			return nil, assert.AnError
		},
		events: func(context.Context, uuid.UUID) ([]models.TimelineEvent, error) {
			return nil, nil
		},
	}
	session := feed.NewSession(uuid.New(), source, newMerger())
	defer session.Close()

	_, err := session.Refresh(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSessionStaleRefreshDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32

	stale := message(at(10), "stale snapshot")
	fresh := message(at(10), "fresh snapshot")

	source := funcSource{
		messages: func(context.Context, uuid.UUID) ([]models.ChatMessage, error) {
			if calls.Add(1) == 1 {
				<-release
				return []models.ChatMessage{stale}, nil
			}
			return []models.ChatMessage{fresh}, nil
		},
		events: func(context.Context, uuid.UUID) ([]models.TimelineEvent, error) {
			return nil, nil
		},
	}

	session := feed.NewSession(uuid.New(), source, newMerger())
	defer session.Close()

	firstDone := make(chan []feed.Entry)
	go func() {
		entries, err := session.Refresh(context.Background())
		assert.NoError(t, err)
		firstDone <- entries
	}()

	// Wait until the first refresh is parked inside its fetch.
	require.Eventually(t, func() bool { return calls.Load() == 1 },
		time.Second, time.Millisecond)

	// A newer refresh completes while the first is still in flight.
	second, err := session.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "fresh snapshot", second[0].Message.Content)

	// The superseded result is dropped: the late refresh reports the
	// current feed, not its own stale fetch.
	close(release)
	first := <-firstDone
	require.Len(t, first, 1)
	assert.Equal(t, "fresh snapshot", first[0].Message.Content)
}

func TestSessionApplyReMerges(t *testing.T) {
	source := staticSource(
		[]models.ChatMessage{message(at(30), "later")},
		nil,
	)
	session := feed.NewSession(uuid.New(), source, newMerger())
	defer session.Close()

	_, err := session.Refresh(context.Background())
	require.NoError(t, err)

	// A pushed message older than the snapshot still lands in order.
	entries := session.Apply(message(at(10), "earlier"))
	require.Len(t, entries, 2)
	assert.Equal(t, "earlier", entries[0].Message.Content)
	assert.Equal(t, "later", entries[1].Message.Content)
}

func TestSessionApplyDeduplicates(t *testing.T) {
	session := feed.NewSession(uuid.New(), staticSource(nil, nil), newMerger())
	defer session.Close()

	msg := message(at(1), "once")
	entries := session.Apply(msg)
	require.Len(t, entries, 1)

	entries = session.Apply(msg)
	assert.Len(t, entries, 1)
}

func TestSessionApplyEvent(t *testing.T) {
	session := feed.NewSession(uuid.New(), staticSource(nil, nil), newMerger())
	defer session.Close()

	session.Apply(message(at(20), "paying now"))
	entries := session.ApplyEvent(statusEvent(at(20), "paid"))

	require.Len(t, entries, 2)
	assert.Equal(t, feed.KindEvent, entries[0].Kind)
	assert.Equal(t, feed.KindMessage, entries[1].Kind)
}

func TestSessionClosedIgnoresUpdates(t *testing.T) {
	session := feed.NewSession(uuid.New(), staticSource(
		[]models.ChatMessage{message(at(1), "m")}, nil), newMerger())

	_, err := session.Refresh(context.Background())
	require.NoError(t, err)
	session.Close()

	entries := session.Apply(message(at(2), "dropped"))
	assert.Len(t, entries, 1)
}
