package api

import (
	"encoding/json"
	"net/http"

	"github.com/strefethen/sonos-mqtt-go/internal/apperrors"
)

// ErrorResponse wraps errors for HTTP responses.
type ErrorResponse struct {
	Error apperrors.ErrorBody `json:"error"`
}

// ListResponse is the list envelope for all collection endpoints.
// Example: {"object": "list", "data": [...], "url": "/v1/players"}
type ListResponse struct {
	Object string `json:"object"` // Always "list"
	Data   any    `json:"data"`
	URL    string `json:"url"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes an AppError into the error response envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.EnsureAppError(err)
	_ = WriteJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Body()})
}

// WriteList writes a list response.
func WriteList(w http.ResponseWriter, url string, data any) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Object: "list",
		Data:   data,
		URL:    url,
	})
}

// WriteResource writes a single resource directly.
// The resource should already have an "object" field set.
func WriteResource(w http.ResponseWriter, status int, resource any) error {
	return WriteJSON(w, status, resource)
}
