package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStreamActive    = errors.New("session already has an active stream")
	ErrStreamFailed    = errors.New("stream failed")
)
