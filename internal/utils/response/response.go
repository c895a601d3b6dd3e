// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Handlers that have a domain body (check-vip, the ticket list, the event
// snapshot) encode it directly with WriteJSON. Everything else that goes
// wrong is sent in the error envelope:
//
//	{ "status": "error", "error": "Forbidden: Admin privileges required." }
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the error envelope.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data as JSON with the given status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteText writes a plain-text body, used by the health route.
func WriteText(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	return err
}

// GeneralError wraps err into the error envelope.
//
//	response.WriteJSON(w, http.StatusInternalServerError,
//	    response.GeneralError(err))
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}
