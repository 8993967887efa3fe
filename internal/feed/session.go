package feed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"taskbridge-backend/internal/models"
)

// Source supplies the two raw collections the feed is built from.
type Source interface {
	Messages(ctx context.Context, projectID uuid.UUID) ([]models.ChatMessage, error)
	Events(ctx context.Context, projectID uuid.UUID) ([]models.TimelineEvent, error)
}

// Session holds the merged feed for a single project. It is created
// explicitly per project and must be closed when the consumer goes away;
// there is no ambient registry. Both snapshots are replaced wholesale on
// every refresh and the merge is recomputed from scratch, so a push
// notification and a user-initiated refresh racing each other cannot
// corrupt ordering.
type Session struct {
	projectID uuid.UUID
	source    Source
	merger    *Merger

	// seq is the monotonic refresh token: a fetch whose token is no longer
	// current had its result superseded and is dropped without comment.
	seq atomic.Uint64

	mu       sync.Mutex
	closed   bool
	messages []models.ChatMessage
	events   []models.TimelineEvent
	entries  []Entry
}

func NewSession(projectID uuid.UUID, source Source, merger *Merger) *Session {
	return &Session{
		projectID: projectID,
		source:    source,
		merger:    merger,
	}
}

// Refresh re-fetches both collections and rebuilds the feed. If a newer
// Refresh started while this one was in flight, the late result is
// discarded silently and the current entries are returned instead; stale
// results are ordinary control flow, not errors.
func (s *Session) Refresh(ctx context.Context) ([]Entry, error) {
	token := s.seq.Add(1)

	messages, err := s.source.Messages(ctx, s.projectID)
	if err != nil {
		return nil, err
	}
	events, err := s.source.Events(ctx, s.projectID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || token != s.seq.Load() {
		return s.entries, nil
	}
	s.messages = messages
	s.events = events
	s.entries = s.merger.Merge(messages, events)
	return s.entries, nil
}

// Apply folds a pushed message into the current snapshot and re-merges.
// Delivery order from the realtime channel is not trusted, so the whole
// merge runs again rather than appending at the end.
func (s *Session) Apply(msg models.ChatMessage) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.entries
	}
	for _, existing := range s.messages {
		if existing.ID == msg.ID {
			return s.entries
		}
	}
	s.messages = append(s.messages, msg)
	s.entries = s.merger.Merge(s.messages, s.events)
	return s.entries
}

// ApplyEvent folds a pushed timeline event into the snapshot, same rules as
// Apply.
func (s *Session) ApplyEvent(ev models.TimelineEvent) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.entries
	}
	for _, existing := range s.events {
		if existing.ID == ev.ID {
			return s.entries
		}
	}
	s.events = append(s.events, ev)
	s.entries = s.merger.Merge(s.messages, s.events)
	return s.entries
}

// Entries returns the last merged feed without fetching.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Close invalidates the session; any in-flight Refresh result is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.messages = nil
	s.events = nil
}
