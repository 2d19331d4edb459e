package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAuthenticationExpired indicates the backend rejected the session
// credential. The shared session store has already been cleared by the time
// this error is returned; the surrounding flow must be treated as aborted.
var ErrAuthenticationExpired = errors.New("authentication expired")

// RequestError is returned for any non-2xx backend response that is not an
// authorization failure.
type RequestError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the best human-readable message extracted from the
	// response body.
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// validation-style field errors the backend emits for bad input
// (Django REST Framework convention: {"field": ["message", ...]}).
var validationFields = []string{
	"email", "password", "password_confirm", "first_name", "last_name",
	"name", "code", "token", "state",
}

// messageFromBody extracts the most useful human-readable message from a
// decoded error body. Preference order: "message", "detail", flattened
// field validation errors, then the empty string.
func messageFromBody(body map[string]interface{}) string {
	if msg, ok := body["message"].(string); ok && msg != "" {
		return msg
	}
	if detail, ok := body["detail"].(string); ok && detail != "" {
		return detail
	}

	var parts []string
	for _, field := range validationFields {
		raw, ok := body[field]
		if !ok {
			continue
		}
		if msg := firstMessage(raw); msg != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", fieldLabel(field), msg))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " | ")
}

// firstMessage extracts a usable message from a field error value, which
// the backend sends either as a string or a list of strings.
func firstMessage(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		if s, ok := v[0].(string); ok {
			return s
		}
	}
	return ""
}

func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
