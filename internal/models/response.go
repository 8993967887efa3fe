package models

import "time"

type ProjectResponse struct {
	ID           string                 `json:"project_id"`
	Title        string                 `json:"title"`
	Status       string                 `json:"status"`
	StatusLabel  string                 `json:"status_label"`
	StepIndex    int                    `json:"step_index"`
	TotalSteps   int                    `json:"total_steps"`
	DoerID       string                 `json:"doer_id,omitempty"`
	SupervisorID string                 `json:"supervisor_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID          string    `json:"project_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProgressResponse struct {
	ProjectID  string `json:"project_id"`
	Status     string `json:"status"`
	Label      string `json:"label"`
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
}

type MessageResponse struct {
	ID            string    `json:"message_id"`
	ProjectID     string    `json:"project_id"`
	SenderID      string    `json:"sender_id"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type MessagePageResponse struct {
	Messages   []MessageResponse `json:"messages"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type TimelineEventResponse struct {
	ID          string    `json:"event_id"`
	Kind        string    `json:"kind"`
	FromStatus  string    `json:"from_status,omitempty"`
	ToStatus    string    `json:"to_status,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type TimelineResponse struct {
	Events []TimelineEventResponse `json:"events"`
}

type FeedEntryResponse struct {
	Kind      string                 `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	Label     string                 `json:"label,omitempty"`
	Emphasis  string                 `json:"emphasis,omitempty"`
	Message   *MessageResponse       `json:"message,omitempty"`
	Event     *TimelineEventResponse `json:"event,omitempty"`
}

type FeedResponse struct {
	ProjectID  string              `json:"project_id"`
	Entries    []FeedEntryResponse `json:"entries"`
	StepIndex  int                 `json:"step_index"`
	TotalSteps int                 `json:"total_steps"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
