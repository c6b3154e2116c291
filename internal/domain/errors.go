package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrAssistantUnavailable is returned when the text-categorization service
	// cannot be reached or keeps failing
	ErrAssistantUnavailable = errors.New("assistant service unavailable")

	// ErrNoStructuredData is returned when assistant output contains no
	// parseable category-to-item mapping
	ErrNoStructuredData = errors.New("no structured data in assistant output")

	// ErrPersistence is returned when the catalog or training cache cannot be
	// written back to durable storage
	ErrPersistence = errors.New("durable storage write failed")
)
