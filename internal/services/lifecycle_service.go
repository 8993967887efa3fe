package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/status"
	"taskbridge-backend/internal/supabase"
	"taskbridge-backend/internal/ws"
)

// ErrInvalidTransition means the requested status move is not allowed by the
// taxonomy (unknown target, or no edge from the current status).
var ErrInvalidTransition = errors.New("invalid status transition")

// LifecycleService applies taxonomy-validated status transitions and quotes,
// records their timeline events, and fans the change out to realtime and
// connected feed subscribers.
type LifecycleService struct {
	dbClient *supabase.DatabaseClient
	realtime *supabase.RealtimeClient
	tax      *status.Taxonomy
	hub      *ws.Hub
}

func NewLifecycleService(dbClient *supabase.DatabaseClient, realtime *supabase.RealtimeClient, tax *status.Taxonomy, hub *ws.Hub) *LifecycleService {
	return &LifecycleService{
		dbClient: dbClient,
		realtime: realtime,
		tax:      tax,
		hub:      hub,
	}
}

// Transition moves the project to toStatus if the taxonomy allows it from
// the project's current status.
func (s *LifecycleService) Transition(ctx context.Context, project *models.Project, toStatus, notes string) (*models.TimelineEvent, error) {
	if !s.tax.Known(toStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, toStatus)
	}
	if !s.tax.CanTransition(project.Status, toStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, project.Status, toStatus)
	}

	event, err := s.dbClient.TransitionStatus(ctx, project.ID, project.Status, toStatus, notes)
	if err != nil {
		return nil, err
	}

	// A move into cancelled/refunded keeps the step the project left. The
	// from status is always on-track here: terminal codes have no outgoing
	// edges, so it can never itself be step-inheriting.
	step := s.tax.ResolveWithHistory(toStatus, []string{project.Status})
	payload := supabase.StatusChangedPayload(project.ID, project.Status, toStatus, step.Index)
	if err := s.realtime.PublishProjectEvent(project.ID, "status_changed", payload); err != nil {
		log.Printf("lifecycle: realtime publish failed for project %s: %v", project.ID, err)
	}
	s.hub.NotifyProject(project.ID)

	return event, nil
}

// Quote records a supervisor's price quote, which also moves the project to
// quoted.
func (s *LifecycleService) Quote(ctx context.Context, project *models.Project, amountCents int64, notes string) (*models.TimelineEvent, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: quote amount must be positive", ErrInvalidTransition)
	}
	if !s.tax.CanTransition(project.Status, "quoted") {
		return nil, fmt.Errorf("%w: %s -> quoted", ErrInvalidTransition, project.Status)
	}

	event, err := s.dbClient.CreateQuote(ctx, project.ID, project.Status, amountCents, notes)
	if err != nil {
		return nil, err
	}

	if err := s.realtime.PublishProjectEvent(project.ID, "quote_created", supabase.QuoteCreatedPayload(project.ID, amountCents)); err != nil {
		log.Printf("lifecycle: realtime publish failed for project %s: %v", project.ID, err)
	}
	s.hub.NotifyProject(project.ID)

	return event, nil
}
