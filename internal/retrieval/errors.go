package retrieval

import "errors"

var (
	// ErrEmptyQuery is returned when the query is empty or whitespace-only.
	// No retrieval is attempted.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrMissingUser is returned when no user id is supplied. Retrieval is
	// always scoped to a user; the orchestrator refuses to proceed without
	// one.
	ErrMissingUser = errors.New("user id is required")
)
