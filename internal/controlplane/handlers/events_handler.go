package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/sync"
)

const (
	eventsWriteTimeout = 20 * time.Second
	shutdownReason     = "shutdown"
)

// ConflictFeed publishes snapshots of the pending conflicts.
type ConflictFeed interface {
	PendingConflicts
	Subscribe() <-chan []*sync.Pair
	Unsubscribe(ch <-chan []*sync.Pair)
}

type EventsHandler struct {
	feed ConflictFeed
}

func NewEventsHandler(feed ConflictFeed) *EventsHandler {
	return &EventsHandler{feed: feed}
}

// Conflicts upgrades to a websocket and streams the pending conflicts: the
// current set on connect, then a new snapshot on every change.
func (h *EventsHandler) Conflicts(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Errorf("websocket accept failed: %w", err))
		return
	}

	updates := h.feed.Subscribe()
	defer h.feed.Unsubscribe(updates)

	// clients only listen; CloseRead cancels ctx once they go away
	ctx := conn.CloseRead(c.Request.Context())
	slog.Debug("events connected", "ip", c.ClientIP())

	if err := writeConflicts(ctx, conn, h.feed.Pending()); err != nil {
		slog.Debug("events write", "error", err)
		conn.Close(websocket.StatusInternalError, "write failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Debug("events disconnected", "ip", c.ClientIP())
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case snapshot, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, shutdownReason)
				return
			}
			if err := writeConflicts(ctx, conn, snapshot); err != nil {
				slog.Debug("events write", "error", err)
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func writeConflicts(ctx context.Context, conn *websocket.Conn, pairs []*sync.Pair) error {
	ctxWrite, cancel := context.WithTimeout(ctx, eventsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctxWrite, conn, &ConflictsEvent{
		Type:      EventConflicts,
		Timestamp: time.Now().UTC(),
		Conflicts: newConflictItems(pairs),
	})
}
