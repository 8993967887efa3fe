package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskbridge-backend/internal/chat"
	"taskbridge-backend/internal/feed"
	"taskbridge-backend/internal/models"
	"taskbridge-backend/internal/services"
	"taskbridge-backend/internal/supabase"
	"taskbridge-backend/internal/ws"
)

type StreamHandler struct {
	dbClient    *supabase.DatabaseClient
	feedService *services.FeedService
	feedHandler *FeedHandler
	merger      *feed.Merger
	hub         *ws.Hub
	transport   chat.Transport
	upgrader    websocket.Upgrader
}

func NewStreamHandler(dbClient *supabase.DatabaseClient, feedService *services.FeedService, feedHandler *FeedHandler, merger *feed.Merger, hub *ws.Hub, transport chat.Transport) *StreamHandler {
	return &StreamHandler{
		dbClient:    dbClient,
		feedService: feedService,
		feedHandler: feedHandler,
		merger:      merger,
		hub:         hub,
		transport:   transport,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin enforcement belongs to the reverse proxy in this
			// deployment; the token check below gates access.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades the connection and pushes the full merged feed on connect
// and again whenever the project's feed changes. Sending snapshots instead
// of deltas keeps ordering authority in one place: the merge.
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projectID, ok := projectIDParam(c)
	if !ok {
		return
	}

	project, err := h.dbClient.GetProject(c.Request.Context(), projectID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "project not found",
			Message: err.Error(),
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("stream: upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(projectID, userID.String(), conn)
	h.hub.Register(client)

	session := feed.NewSession(projectID, h.feedService, h.merger)

	// Messages sent through this server are folded into the session
	// immediately; the signal then wakes the push loop. Notify is buffered
	// and never closed, so a callback racing the disconnect is harmless.
	unsubscribe := h.transport.Subscribe(projectID, func(msg models.ChatMessage) {
		session.Apply(msg)
		select {
		case client.Notify <- struct{}{}:
		default:
		}
	})

	go client.WritePump()
	go h.pushLoop(client, session, project)

	// Blocks until the peer disconnects, then unregisters the client,
	// which ends pushLoop via the done channel.
	client.ReadPump(h.hub)
	unsubscribe()
	session.Close()
}

func (h *StreamHandler) pushLoop(client *ws.Client, session *feed.Session, project *models.Project) {
	// Sole sender on client.Send; closing it here stops WritePump.
	defer close(client.Send)

	ctx := context.Background()

	h.pushSnapshot(ctx, client, session, project)

	for {
		select {
		case <-client.Done():
			return
		case <-client.Notify:
			h.pushSnapshot(ctx, client, session, project)
		}
	}
}

func (h *StreamHandler) pushSnapshot(ctx context.Context, client *ws.Client, session *feed.Session, project *models.Project) {
	entries, err := session.Refresh(ctx)
	if err != nil {
		log.Printf("stream: refresh failed for project %s: %v", project.ID, err)
		return
	}

	// Re-read the project so the pushed step reflects any status change that
	// triggered this notification. The client is always a member.
	if current, err := h.dbClient.GetProject(ctx, project.ID, project.ClientID); err == nil {
		*project = *current
	}
	step, err := h.feedService.Progress(ctx, project)
	if err != nil {
		step = h.feedService.Taxonomy().Resolve(project.Status)
	}

	payload, err := json.Marshal(models.FeedResponse{
		ProjectID:  project.ID.String(),
		Entries:    h.feedHandler.feedEntries(entries),
		StepIndex:  step.Index,
		TotalSteps: step.Total,
	})
	if err != nil {
		log.Printf("stream: marshal failed: %v", err)
		return
	}

	select {
	case client.Send <- payload:
	default:
		// Slow consumer; it will get the next snapshot.
	}
}
