package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")

	// ErrNoToken is returned by the token source when nobody is signed in.
	ErrNoToken = errors.New("no session token")
)

// APIError is returned for every failed call. It unwraps to one of the
// sentinel errors above and, for transport failures, to the cause.
type APIError struct {
	Op      string
	Status  int
	Message string
	Kind    error
	Cause   error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return ErrValidation
	default:
		return ErrServer
	}
}

// serverMessage pulls "message", then "error", out of a JSON error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	if s, ok := payload.Error.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Message returns the server's message for err when there is one, else
// fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// UserMessage is the API's own explanation, if it sent one.
func (e *APIError) UserMessage() string { return e.Message }
