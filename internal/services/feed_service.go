package services

import (
	"context"

	"github.com/google/uuid"

	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/status"
	"taskbridge-backend/internal/supabase"
)

// FeedService assembles the unified activity feed and progress position for
// a project. It is the feed.Source backing ws sessions and the one-shot
// source behind GET /feed.
type FeedService struct {
	dbClient *supabase.DatabaseClient
	merger   *feed.Merger
	tax      *status.Taxonomy
}

func NewFeedService(dbClient *supabase.DatabaseClient, merger *feed.Merger, tax *status.Taxonomy) *FeedService {
	return &FeedService{
		dbClient: dbClient,
		merger:   merger,
		tax:      tax,
	}
}

// Taxonomy exposes the lookup table for labeling in the HTTP layer.
func (s *FeedService) Taxonomy() *status.Taxonomy {
	return s.tax
}

// Messages implements feed.Source.
func (s *FeedService) Messages(ctx context.Context, projectID uuid.UUID) ([]models.ChatMessage, error) {
	return s.dbClient.ListMessages(ctx, projectID)
}

// Events implements feed.Source.
func (s *FeedService) Events(ctx context.Context, projectID uuid.UUID) ([]models.TimelineEvent, error) {
	return s.dbClient.ListTimelineEvents(ctx, projectID)
}

// BuildFeed fetches both collections once and returns the merged feed plus
// the project's track position.
func (s *FeedService) BuildFeed(ctx context.Context, project *models.Project) ([]feed.Entry, status.Step, error) {
	messages, err := s.dbClient.ListMessages(ctx, project.ID)
	if err != nil {
		return nil, status.Step{}, err
	}
	events, err := s.dbClient.ListTimelineEvents(ctx, project.ID)
	if err != nil {
		return nil, status.Step{}, err
	}

	entries := s.merger.Merge(messages, events)
	step := s.stepFromEvents(project.Status, events)
	return entries, step, nil
}

// Progress resolves the project's track position. Cancelled and refunded
// projects keep the step they had reached, so the status history is
// consulted for those.
func (s *FeedService) Progress(ctx context.Context, project *models.Project) (status.Step, error) {
	current, _ := s.tax.StatusFor(project.Status)
	if !current.InheritsStep {
		return s.tax.Resolve(project.Status), nil
	}

	history, err := s.dbClient.StatusHistory(ctx, project.ID)
	if err != nil {
		return status.Step{}, err
	}
	return s.tax.ResolveWithHistory(project.Status, history), nil
}

func (s *FeedService) stepFromEvents(current string, events []models.TimelineEvent) status.Step {
	history := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.ToStatus.Valid {
			history = append(history, ev.ToStatus.String)
		}
	}
	return s.tax.ResolveWithHistory(current, history)
}
