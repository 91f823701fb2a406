package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrNotFound = errors.New("leave entry not found")

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// APIError is a non-2xx response from the leave API.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Fields    []FieldIssue
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+" "+f.Reason)
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Code != "" {
		return fmt.Sprintf("leave api %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("leave api %d: %s", e.Status, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
