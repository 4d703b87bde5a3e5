package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-folio/internal/domain"
)

var (
	errNotFound = errors.New("not found")
	errNotReady = errors.New("no snapshot has been published yet")
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if errors.Is(err, errNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	if errors.Is(err, errNotReady) {
		return http.StatusServiceUnavailable, errorResponse{
			Error:   "not_ready",
			Message: err.Error(),
		}
	}

	if errors.Is(err, domain.ErrInvalidPage) {
		return http.StatusBadRequest, errorResponse{
			Error:   "invalid_page",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

// queryInt reads a positive integer query parameter. Absent values yield
// fallback; values that are not integers yield ok=false.
func queryInt(r *http.Request, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
