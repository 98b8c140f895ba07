package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/notion"
)

type PageTransfer interface {
	GetPage(ctx context.Context, pageID string) (*notion.Page, error)
	DownloadPage(ctx context.Context, pageID string) (string, error)
	UploadFile(ctx context.Context, docPath string) (string, error)
}

type PagesHandler struct {
	engine PageTransfer
}

func NewPagesHandler(engine PageTransfer) *PagesHandler {
	return &PagesHandler{engine: engine}
}

func (h *PagesHandler) Get(c *gin.Context) {
	page, err := h.engine.GetPage(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithSyncError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, page)
}

// Download pulls one record into its bound folder.
func (h *PagesHandler) Download(c *gin.Context) {
	id := c.Param("id")
	path, err := h.engine.DownloadPage(c.Request.Context(), id)
	if err != nil {
		abortWithSyncError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &DownloadPageResponse{Code: CodeOk, RecordID: id, Path: path})
}

// Upload pushes one document, creating its record when it has none.
func (h *PagesHandler) Upload(c *gin.Context) {
	var req UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	id, err := h.engine.UploadFile(c.Request.Context(), req.Path)
	if err != nil {
		abortWithSyncError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &UploadFileResponse{Code: CodeOk, RecordID: id, Path: req.Path})
}
