package data

import "errors"

var (
	// ErrJobNotFound is returned when a collection job is not found.
	ErrJobNotFound = errors.New("collection job not found")
	// ErrNoJobsPending is returned when no pending jobs are available to claim.
	ErrNoJobsPending = errors.New("no pending jobs")
)
