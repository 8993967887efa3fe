package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	DoerID       uuid.NullUUID
	SupervisorID uuid.NullUUID
	Title        string
	Status       string
	Metadata     json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MetadataMap decodes the stored metadata blob. Empty metadata decodes to
// nil; a malformed blob returns the decode error alongside nil so the caller
// can choose between failing and rendering without it.
func (p *Project) MetadataMap() (map[string]interface{}, error) {
	if len(p.Metadata) == 0 {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(p.Metadata, &m); err != nil {
		return nil, err
	}
	return m, nil
}

type ChatMessage struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	SenderID       uuid.UUID
	Content        string
	AttachmentPath sql.NullString
	CreatedAt      time.Time
}

// TimelineEvent is a server-recorded fact about a status or quote change.
// Rows are written once and never updated.
type TimelineEvent struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Kind        string
	FromStatus  sql.NullString
	ToStatus    sql.NullString
	AmountCents sql.NullInt64
	Notes       sql.NullString
	CreatedAt   time.Time
}

const (
	EventKindStatusChange = "status_change"
	EventKindQuote        = "quote"
)
