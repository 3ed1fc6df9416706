// Package apierr defines the hub's HTTP error taxonomy and a single helper
// to report it consistently, instead of scattering ad hoc
// http.Error(w, msg, status) call sites across server.go.
package apierr

import (
	"encoding/json"
	"net/http"
)

// Kind is one of the five error kinds this API returns.
type Kind string

const (
	BadRequest          Kind = "bad_request"
	Unauthorized        Kind = "unauthorized"
	NotFound            Kind = "not_found"
	RangeNotSatisfiable Kind = "range_not_satisfiable"
	Internal            Kind = "internal"
)

var statusByKind = map[Kind]int{
	BadRequest:          http.StatusBadRequest,
	Unauthorized:        http.StatusUnauthorized,
	NotFound:            http.StatusNotFound,
	RangeNotSatisfiable: http.StatusRequestedRangeNotSatisfiable,
	Internal:            http.StatusInternalServerError,
}

// Error is an error value that carries its HTTP kind alongside a message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Status returns the HTTP status code for this error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Write reports err on w as a JSON body `{"error": "..."}` with the status
// matching its kind. Plain errors (not *Error) are reported as Internal.
func Write(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = &Error{Kind: Internal, Message: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status())
	_ = json.NewEncoder(w).Encode(map[string]string{"error": apiErr.Message})
}
