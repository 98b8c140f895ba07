package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/sync"
)

type Syncer interface {
	Sync(ctx context.Context, force sync.Direction) (*sync.Run, error)
	LastRun() *sync.Run
}

type SyncHandler struct {
	engine Syncer
}

func NewSyncHandler(engine Syncer) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// Now runs a pass and returns its result. ?force=download|upload forces one
// side; a pass already in progress is reported as a conflict, not queued.
func (h *SyncHandler) Now(c *gin.Context) {
	force, err := sync.ParseDirection(c.Query("force"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	run, err := h.engine.Sync(c.Request.Context(), force)
	if err != nil {
		abortWithSyncError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, newSyncResponse(run))
}

// Last returns the most recent pass of this process.
func (h *SyncHandler) Last(c *gin.Context) {
	run := h.engine.LastRun()
	if run == nil {
		c.Status(http.StatusNoContent)
		c.Writer.WriteHeaderNow()
		return
	}
	c.PureJSON(http.StatusOK, newSyncResponse(run))
}
