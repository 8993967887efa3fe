package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"taskbridge-backend/internal/models"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Note: Supabase Go client doesn't have direct Realtime publish.
	// The row inserts below each payload trigger Realtime automatically;
	// this hook exists for explicit event publishing via the REST API later.
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func MessageCreatedPayload(msg *models.ChatMessage) map[string]interface{} {
	payload := map[string]interface{}{
		"project_id": msg.ProjectID.String(),
		"message_id": msg.ID.String(),
		"sender_id":  msg.SenderID.String(),
		"created_at": msg.CreatedAt,
	}
	if msg.AttachmentPath.Valid {
		payload["attachment_path"] = msg.AttachmentPath.String
	}
	return payload
}

func StatusChangedPayload(projectID uuid.UUID, fromStatus, toStatus string, stepIndex int) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID.String(),
		"from_status": fromStatus,
		"to_status":   toStatus,
		"step_index":  stepIndex,
	}
}

func QuoteCreatedPayload(projectID uuid.UUID, amountCents int64) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   projectID.String(),
		"status":       "quoted",
		"amount_cents": amountCents,
	}
}
