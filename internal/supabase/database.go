package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"taskbridge-backend/internal/models"
)

// ErrStatusConflict means the project's stored status no longer matches the
// transition's expected starting point; somebody else moved it first.
var ErrStatusConflict = errors.New("project status changed concurrently")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) CreateProject(ctx context.Context, clientID uuid.UUID, title string, metadata map[string]interface{}) (*models.Project, error) {
	metadataJSON, _ := json.Marshal(metadata)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var project models.Project
	err = tx.QueryRowContext(ctx, `
		INSERT INTO projects (id, client_id, title, status, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, client_id, doer_id, supervisor_id, title, status, metadata, created_at, updated_at
	`, uuid.New(), clientID, title, "submitted", metadataJSON).Scan(
		&project.ID, &project.ClientID, &project.DoerID, &project.SupervisorID,
		&project.Title, &project.Status, &project.Metadata, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timeline_events (id, project_id, kind, to_status)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), project.ID, models.EventKindStatusChange, "submitted")
	if err != nil {
		return nil, fmt.Errorf("failed to record submission event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project: %w", err)
	}

	return &project, nil
}

func (d *DatabaseClient) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRowContext(ctx, `
		SELECT id, client_id, doer_id, supervisor_id, title, status, metadata, created_at, updated_at
		FROM projects
		WHERE id = $1 AND (client_id = $2 OR doer_id = $2 OR supervisor_id = $2)
	`, projectID, userID).Scan(
		&project.ID, &project.ClientID, &project.DoerID, &project.SupervisorID,
		&project.Title, &project.Status, &project.Metadata, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// DeleteProject removes a project owned by the caller. Messages and
// timeline events go with it via ON DELETE CASCADE. Returns sql.ErrNoRows
// when the project does not exist or the caller is not its client.
func (d *DatabaseClient) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := d.db.ExecContext(ctx, `
		DELETE FROM projects
		WHERE id = $1 AND client_id = $2
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check project deletion: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *DatabaseClient) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, client_id, doer_id, supervisor_id, title, status, metadata, created_at, updated_at
		FROM projects
		WHERE client_id = $1 OR doer_id = $1 OR supervisor_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID, &project.ClientID, &project.DoerID, &project.SupervisorID,
			&project.Title, &project.Status, &project.Metadata, &project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// TransitionStatus atomically moves a project from one status to another and
// records the matching timeline event. The update is guarded on the expected
// current status so two concurrent transitions cannot both win.
func (d *DatabaseClient) TransitionStatus(ctx context.Context, projectID uuid.UUID, fromStatus, toStatus, notes string) (*models.TimelineEvent, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, toStatus, projectID, fromStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	event, err := insertEvent(ctx, tx, &models.TimelineEvent{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Kind:       models.EventKindStatusChange,
		FromStatus: sql.NullString{String: fromStatus, Valid: true},
		ToStatus:   sql.NullString{String: toStatus, Valid: true},
		Notes:      sql.NullString{String: notes, Valid: notes != ""},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	return event, nil
}

// CreateQuote records a quote event and moves the project to the quoted
// status in one transaction. The quote event itself carries the status pair,
// so no separate status_change row is written.
func (d *DatabaseClient) CreateQuote(ctx context.Context, projectID uuid.UUID, fromStatus string, amountCents int64, notes string) (*models.TimelineEvent, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET status = 'quoted', updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, projectID, fromStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check status update: %w", err)
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	event, err := insertEvent(ctx, tx, &models.TimelineEvent{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Kind:        models.EventKindQuote,
		FromStatus:  sql.NullString{String: fromStatus, Valid: true},
		ToStatus:    sql.NullString{String: "quoted", Valid: true},
		AmountCents: sql.NullInt64{Int64: amountCents, Valid: true},
		Notes:       sql.NullString{String: notes, Valid: notes != ""},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quote: %w", err)
	}

	return event, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event *models.TimelineEvent) (*models.TimelineEvent, error) {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO timeline_events (id, project_id, kind, from_status, to_status, amount_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, event.ID, event.ProjectID, event.Kind, event.FromStatus, event.ToStatus,
		event.AmountCents, event.Notes).Scan(&event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record timeline event: %w", err)
	}
	return event, nil
}

func (d *DatabaseClient) ListTimelineEvents(ctx context.Context, projectID uuid.UUID) ([]models.TimelineEvent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, project_id, kind, from_status, to_status, amount_cents, notes, created_at
		FROM timeline_events
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	defer rows.Close()

	var events []models.TimelineEvent
	for rows.Next() {
		var event models.TimelineEvent
		err := rows.Scan(
			&event.ID, &event.ProjectID, &event.Kind, &event.FromStatus,
			&event.ToStatus, &event.AmountCents, &event.Notes, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// StatusHistory returns the ordered sequence of statuses the project has
// passed through, oldest first. Quote events count because they carry the
// move into quoted.
func (d *DatabaseClient) StatusHistory(ctx context.Context, projectID uuid.UUID) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT to_status
		FROM timeline_events
		WHERE project_id = $1 AND to_status IS NOT NULL
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	defer rows.Close()

	var history []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, code)
	}

	return history, rows.Err()
}

func (d *DatabaseClient) CreateMessage(ctx context.Context, projectID, senderID uuid.UUID, content, attachmentPath string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:             uuid.New(),
		ProjectID:      projectID,
		SenderID:       senderID,
		Content:        content,
		AttachmentPath: sql.NullString{String: attachmentPath, Valid: attachmentPath != ""},
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (id, project_id, sender_id, content, attachment_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, msg.ID, msg.ProjectID, msg.SenderID, msg.Content, msg.AttachmentPath).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &msg, nil
}

func (d *DatabaseClient) ListMessages(ctx context.Context, projectID uuid.UUID) ([]models.ChatMessage, error) {
	return d.queryMessages(ctx, `
		SELECT id, project_id, sender_id, content, attachment_path, created_at
		FROM chat_messages
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
}

// ListLatestMessages returns the newest limit messages, newest first.
func (d *DatabaseClient) ListLatestMessages(ctx context.Context, projectID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	return d.queryMessages(ctx, `
		SELECT id, project_id, sender_id, content, attachment_path, created_at
		FROM chat_messages
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, projectID, limit)
}

// ListMessagesBefore returns up to limit messages strictly before the
// (created_at, id) cursor position, newest first. The compound comparison
// keeps pagination lossless when several messages share a timestamp.
func (d *DatabaseClient) ListMessagesBefore(ctx context.Context, projectID uuid.UUID, before time.Time, beforeID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	return d.queryMessages(ctx, `
		SELECT id, project_id, sender_id, content, attachment_path, created_at
		FROM chat_messages
		WHERE project_id = $1 AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, projectID, before, beforeID, limit)
}

func (d *DatabaseClient) queryMessages(ctx context.Context, query string, args ...interface{}) ([]models.ChatMessage, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		err := rows.Scan(
			&msg.ID, &msg.ProjectID, &msg.SenderID,
			&msg.Content, &msg.AttachmentPath, &msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
