package web

// errors.go provides unified error response handling for the web layer.
//
// Technical errors are logged with the request id; clients get a short
// message, a suggested action and a code for support reference, as JSON for
// API requests and plain text otherwise.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/store"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// UserMessage is the client-facing description of an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

var (
	msgUnknownDataset = UserMessage{"Table not found", "Check the table name in the URL", "TBL001"}
	msgBadQuery       = UserMessage{"Invalid table query", "Check the sort field and paging parameters", "TBL002"}
	msgTimeout        = UserMessage{"The request timed out", "Please try again in a few moments", "DB006"}
	msgUnavailable    = UserMessage{"Unable to reach the database", "Please try again in a few moments", "DB004"}
	msgRateLimited    = UserMessage{"Too many requests", "Wait a minute before retrying", "RATE001"}
	msgBusy           = UserMessage{"The server is busy rendering tables", "Please try again in a few seconds", "SRV001"}
	msgDefault        = UserMessage{"Something went wrong", "Please try again; quote the request id if it persists", "ERR000"}
)

// errBadQuery marks errors caused by request parameters.
var errBadQuery = errors.New("bad query")

// mapError matches sentinels first, then known driver messages.
func mapError(err error) UserMessage {
	switch {
	case err == nil:
		return UserMessage{}
	case errors.Is(err, store.ErrUnknownDataset):
		return msgUnknownDataset
	case errors.Is(err, errBadQuery), errors.Is(err, store.ErrUnknownField):
		return msgBadQuery
	case errors.Is(err, ErrTooManyViews):
		return msgBusy
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "connection refused"), strings.Contains(s, "connection reset"):
		return msgUnavailable
	case strings.Contains(s, "timeout"):
		return msgTimeout
	}
	return msgDefault
}

// statusFor picks the response status for err when the handler has no
// better idea.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, errBadQuery), errors.Is(err, store.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyViews):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and writes the mapped
// user message in the format the client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := mapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		writeErrorJSON(w, msg, statusCode)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(msg.Message + " (" + msg.Code + "). " + msg.Action + "\n"))
	if id := middleware.GetReqID(r.Context()); id != "" {
		_, _ = w.Write([]byte("request id: " + id + "\n"))
	}
}

// writeErrorJSON writes a JSON error response.
func writeErrorJSON(w http.ResponseWriter, msg UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
