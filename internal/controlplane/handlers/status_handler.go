package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/sync"
	"github.com/openmined/notionsync/internal/version"
)

type RunJournal interface {
	LastRun(ctx context.Context) (*sync.RunRecord, error)
}

// StatusHandler handles status-related endpoints
type StatusHandler struct {
	settings SettingsReader
	pending  PendingConflicts
	journal  RunJournal
}

// NewStatusHandler creates a new status handler. journal may be nil.
func NewStatusHandler(settings SettingsReader, pending PendingConflicts, journal RunJournal) *StatusHandler {
	return &StatusHandler{
		settings: settings,
		pending:  pending,
		journal:  journal,
	}
}

func (h *StatusHandler) Status(c *gin.Context) {
	s := h.settings.Get()

	bindings := 0
	for _, b := range s.Files {
		if b.Path != "" {
			bindings++
		}
	}

	resp := &StatusResponse{
		Status:           "ok",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Version:          version.Version,
		Revision:         version.Revision,
		BuildDate:        version.BuildDate,
		HasAPIKey:        s.APIKey != "",
		Bindings:         bindings,
		PendingConflicts: len(h.pending.Pending()),
	}
	if s.LastSync > 0 {
		resp.LastSync = s.Watermark().UTC().Format(time.RFC3339)
	}
	if h.journal != nil {
		last, err := h.journal.LastRun(c.Request.Context())
		if err != nil {
			slog.Warn("status journal", "error", err)
		}
		resp.LastRun = last
	}

	c.PureJSON(http.StatusOK, resp)
}
