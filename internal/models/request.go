package models

type CreateProjectRequest struct {
	Title string `json:"title" binding:"required,min=3,max=255"`
	// Optional metadata to store with project (subject, word count, deadline)
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
	// Storage path of a previously uploaded attachment, if any
	AttachmentPath string `json:"attachment_path,omitempty"`
}

type TransitionRequest struct {
	ToStatus string `json:"to_status" binding:"required"`
	Notes    string `json:"notes,omitempty"`
}

type QuoteRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Notes       string `json:"notes,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
