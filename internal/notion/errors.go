package notion

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	ErrNoAPIKey      = errors.New("notion: api key missing")
	ErrNoBaseURL     = errors.New("notion: base url missing")
	ErrEmptyResponse = errors.New("notion: empty or unparsable response")
	ErrNoTitle       = errors.New("notion: record has no title property")
	ErrNotFound      = errors.New("notion: object not found")
)

// Error codes returned in the Notion error envelope
const (
	CodeInvalidJSON        = "invalid_json"
	CodeInvalidRequestURL  = "invalid_request_url"
	CodeInvalidRequest     = "invalid_request"
	CodeValidationError    = "validation_error"
	CodeMissingVersion     = "missing_version"
	CodeUnauthorized       = "unauthorized"
	CodeRestrictedResource = "restricted_resource"
	CodeObjectNotFound     = "object_not_found"
	CodeConflictError      = "conflict_error"
	CodeRateLimited        = "rate_limited"
	CodeInternalError      = "internal_server_error"
	CodeServiceUnavailable = "service_unavailable"
)

// APIError is the error object Notion returns on any non-2xx response.
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error: %d %s - %s", e.Status, e.Code, e.Message)
}

func (e *APIError) ErrorCode() string    { return e.Code }
func (e *APIError) ErrorMessage() string { return e.Message }

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && (e.Code == CodeObjectNotFound || e.Status == http.StatusNotFound)
}

func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	if resp.IsErrorState() {
		if apiErr, ok := resp.ErrorResult().(*APIError); ok && apiErr.Code != "" {
			if apiErr.Status == 0 {
				apiErr.Status = resp.StatusCode
			}
			return fmt.Errorf("%s: %w", operation, apiErr)
		}
		return fmt.Errorf("%s: unexpected status %d: %s", operation, resp.StatusCode, resp.String())
	}

	return nil
}
