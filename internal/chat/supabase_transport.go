package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/policy"
	"taskbridge-backend/internal/supabase"
)

const defaultPageSize = 50

// SupabaseTransport is the production Transport: Postgres for persistence,
// Supabase Realtime for cross-client delivery, plus an in-process subscriber
// registry for consumers living in this server.
type SupabaseTransport struct {
	db        *supabase.DatabaseClient
	realtime  *supabase.RealtimeClient
	validator *policy.Validator

	mu      sync.RWMutex
	nextID  int
	subs    map[uuid.UUID]map[int]func(models.ChatMessage)
}

func NewSupabaseTransport(db *supabase.DatabaseClient, realtime *supabase.RealtimeClient, validator *policy.Validator) *SupabaseTransport {
	return &SupabaseTransport{
		db:        db,
		realtime:  realtime,
		validator: validator,
		subs:      make(map[uuid.UUID]map[int]func(models.ChatMessage)),
	}
}

func (t *SupabaseTransport) FetchPage(ctx context.Context, projectID uuid.UUID, cursor string, limit int) (Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	var (
		messages []models.ChatMessage
		err      error
	)
	if cursor == "" {
		messages, err = t.db.ListLatestMessages(ctx, projectID, limit)
	} else {
		before, beforeID, perr := parseCursor(cursor)
		if perr != nil {
			return Page{}, perr
		}
		messages, err = t.db.ListMessagesBefore(ctx, projectID, before, beforeID, limit)
	}
	if err != nil {
		return Page{}, err
	}

	page := Page{}
	if len(messages) == limit {
		oldest := messages[len(messages)-1]
		page.NextCursor = encodeCursor(oldest.CreatedAt, oldest.ID)
	}

	// rows come newest-first; the feed wants ascending
	page.Messages = make([]models.ChatMessage, len(messages))
	for i, msg := range messages {
		page.Messages[len(messages)-1-i] = msg
	}

	return page, nil
}

// Cursors pair the boundary timestamp with the message id so messages
// sharing a timestamp cannot straddle a page boundary unseen.
func encodeCursor(ts time.Time, id uuid.UUID) string {
	return ts.UTC().Format(time.RFC3339Nano) + "|" + id.String()
}

func parseCursor(cursor string) (time.Time, uuid.UUID, error) {
	tsPart, idPart, found := strings.Cut(cursor, "|")
	if !found {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor %q: missing id part", cursor)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsPart)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor: %w", err)
	}
	return ts, id, nil
}

func (t *SupabaseTransport) Send(ctx context.Context, projectID, senderID uuid.UUID, content, attachmentPath string) (*models.ChatMessage, error) {
	if err := t.validator.Check(content); err != nil {
		return nil, err
	}

	msg, err := t.db.CreateMessage(ctx, projectID, senderID, content, attachmentPath)
	if err != nil {
		return nil, err
	}

	if err := t.realtime.PublishProjectEvent(projectID, "message_created", supabase.MessageCreatedPayload(msg)); err != nil {
		// Delivery is best-effort; the row is persisted and pollers will see it.
		log.Printf("chat: realtime publish failed for project %s: %v", projectID, err)
	}

	t.notify(*msg)
	return msg, nil
}

func (t *SupabaseTransport) Subscribe(projectID uuid.UUID, fn func(models.ChatMessage)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	room, ok := t.subs[projectID]
	if !ok {
		room = make(map[int]func(models.ChatMessage))
		t.subs[projectID] = room
	}
	room[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if room, ok := t.subs[projectID]; ok {
			delete(room, id)
			if len(room) == 0 {
				delete(t.subs, projectID)
			}
		}
	}
}

func (t *SupabaseTransport) notify(msg models.ChatMessage) {
	t.mu.RLock()
	fns := make([]func(models.ChatMessage), 0, len(t.subs[msg.ProjectID]))
	for _, fn := range t.subs[msg.ProjectID] {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(msg)
	}
}
