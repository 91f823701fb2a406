package events

import "errors"

var (
	ErrNotFound     = errors.New("leave event not found")
	ErrInvalidEvent = errors.New("invalid leave event")
)
