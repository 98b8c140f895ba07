package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/config"
)

type SettingsReader interface {
	Get() config.Settings
}

type Binder interface {
	UpdateBinding(ctx context.Context, collectionID, dir string) error
}

type BindingsHandler struct {
	settings SettingsReader
	binder   Binder
}

func NewBindingsHandler(settings SettingsReader, binder Binder) *BindingsHandler {
	return &BindingsHandler{settings: settings, binder: binder}
}

func (h *BindingsHandler) List(c *gin.Context) {
	c.PureJSON(http.StatusOK, &BindingsResponse{Bindings: bindingItems(h.settings.Get())})
}

// Update binds a collection to a folder, moving the folder when it was bound
// elsewhere.
func (h *BindingsHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req UpdateBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	if err := h.binder.UpdateBinding(c.Request.Context(), id, req.Path); err != nil {
		abortWithSyncError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, &BindingsResponse{Bindings: bindingItems(h.settings.Get())})
}

func bindingItems(s config.Settings) []BindingItem {
	items := make([]BindingItem, 0, len(s.Files))
	for id, b := range s.Files {
		if b.Path == "" {
			continue
		}
		items = append(items, BindingItem{CollectionID: id, Path: b.Path})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CollectionID < items[j].CollectionID
	})
	return items
}
