package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any 401 response through errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// ReferencedMessage replaces referential-integrity failures in user notices.
const ReferencedMessage = "This record can't be deleted because it is used in another screen."

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

func newError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}

var referentialMarkers = []string{
	"reference constraint",
	"foreign key constraint",
	"is referenced",
}

// IsReferentialIntegrity reports whether err is a backend refusal caused by a referencing record.
func IsReferentialIntegrity(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, m := range referentialMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// UserMessage is the text shown in notices for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsReferentialIntegrity(err) {
		return ReferencedMessage
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
