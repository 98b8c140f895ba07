package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/notion"
)

type DatabaseLister interface {
	ListDatabases(ctx context.Context) ([]*notion.Database, error)
}

type DatabasesHandler struct {
	lister   DatabaseLister
	settings SettingsReader
}

func NewDatabasesHandler(lister DatabaseLister, settings SettingsReader) *DatabasesHandler {
	return &DatabasesHandler{lister: lister, settings: settings}
}

// List returns every database the integration can see, with the folder each
// one is bound to.
func (h *DatabasesHandler) List(c *gin.Context) {
	dbs, err := h.lister.ListDatabases(c.Request.Context())
	if err != nil {
		abortWithSyncError(c, err)
		return
	}

	files := h.settings.Get().Files
	items := make([]DatabaseItem, 0, len(dbs))
	for _, db := range dbs {
		items = append(items, DatabaseItem{
			ID:             db.ID,
			Title:          db.Name(),
			URL:            db.URL,
			LastEditedTime: db.LastEditedTime,
			BoundPath:      files[db.ID].Path,
		})
	}

	c.PureJSON(http.StatusOK, &DatabasesResponse{Databases: items})
}
