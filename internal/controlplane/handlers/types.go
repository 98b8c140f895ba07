package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/sync"
	"github.com/openmined/notionsync/internal/vault"
)

const (
	CodeOk                  string = "OK"
	ErrCodeBadRequest       string = "ERR_BAD_REQUEST"
	ErrCodeUnknownError     string = "ERR_UNKNOWN_ERROR"
	ErrCodeNotFound         string = "ERR_NOT_FOUND"
	ErrCodeNotBound         string = "ERR_NOT_BOUND"
	ErrCodeSyncRunning      string = "ERR_SYNC_RUNNING"
	ErrCodeIndexUnavailable string = "ERR_INDEX_UNAVAILABLE"
	ErrCodeRemoteRejected   string = "ERR_REMOTE_REJECTED"
	ErrCodeFolderTaken      string = "ERR_FOLDER_TAKEN"
)

type ControlPlaneResponse struct {
	Code string `json:"code"`
}

type ControlPlaneError struct {
	ErrorCode string `json:"code"`
	Error     string `json:"error"`
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Abort()
	c.Error(err)
	c.PureJSON(status, ControlPlaneError{
		ErrorCode: code,
		Error:     err.Error(),
	})
}

// abortWithSyncError maps engine and gateway errors onto a status and code.
func abortWithSyncError(c *gin.Context, err error) {
	var apiErr *notion.APIError
	switch {
	case errors.Is(err, sync.ErrSyncAlreadyRunning):
		AbortWithError(c, http.StatusConflict, ErrCodeSyncRunning, err)
	case errors.Is(err, sync.ErrIndexUnavailable):
		AbortWithError(c, http.StatusServiceUnavailable, ErrCodeIndexUnavailable, err)
	case errors.Is(err, sync.ErrInvalidDirection):
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
	case errors.Is(err, sync.ErrNotBound):
		AbortWithError(c, http.StatusUnprocessableEntity, ErrCodeNotBound, err)
	case errors.Is(err, sync.ErrFolderTaken):
		AbortWithError(c, http.StatusConflict, ErrCodeFolderTaken, err)
	case errors.Is(err, sync.ErrConflictNotFound),
		errors.Is(err, notion.ErrNotFound),
		errors.Is(err, vault.ErrNotFound):
		AbortWithError(c, http.StatusNotFound, ErrCodeNotFound, err)
	case errors.Is(err, sync.ErrPushRejected):
		AbortWithError(c, http.StatusBadGateway, ErrCodeRemoteRejected, err)
	case errors.As(err, &apiErr):
		AbortWithError(c, http.StatusBadGateway, apiErr.Code, err)
	default:
		AbortWithError(c, http.StatusInternalServerError, ErrCodeUnknownError, err)
	}
}
