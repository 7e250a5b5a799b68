// ABOUTME: Sentinel errors for the client cache and optimistic coordinator
package client

import "errors"

var (
	// ErrUnknownQuery means Get was called for a key that was never
	// registered.
	ErrUnknownQuery = errors.New("unknown query")

	// ErrNoValue means the query has no value yet and its first fetch is
	// still in flight.
	ErrNoValue = errors.New("no cached value yet")

	// ErrMutationPending means an optimistic patch for the entity is already
	// in flight; callers must wait for settlement or supersede explicitly.
	ErrMutationPending = errors.New("mutation already pending for entity")
)
