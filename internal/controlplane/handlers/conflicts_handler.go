package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/sync"
)

type Resolver interface {
	Resolve(ctx context.Context, recordID string, direction sync.Direction) (bool, error)
}

type PendingConflicts interface {
	Pending() []*sync.Pair
}

type ConflictsHandler struct {
	resolver Resolver
	pending  PendingConflicts
}

func NewConflictsHandler(resolver Resolver, pending PendingConflicts) *ConflictsHandler {
	return &ConflictsHandler{resolver: resolver, pending: pending}
}

// List returns the conflicts flagged by the last pass that are still waiting
// for a decision.
func (h *ConflictsHandler) List(c *gin.Context) {
	c.PureJSON(http.StatusOK, &ConflictsResponse{
		Conflicts: newConflictItems(h.pending.Pending()),
	})
}

// Resolve applies a decision to one conflict.
func (h *ConflictsHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	direction, err := sync.ParseDirection(req.Direction)
	if err == nil && direction == sync.DirectionNone {
		err = errors.New("direction must be upload or download")
	}
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	all, err := h.resolver.Resolve(c.Request.Context(), strings.TrimSpace(req.RecordID), direction)
	if err != nil {
		abortWithSyncError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, &ResolveResponse{Code: CodeOk, AllResolved: all})
}
