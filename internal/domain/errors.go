package domain

import "errors"

var (
	// ErrInvalidQuery signals a caller-fixable query problem (empty, too short).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoRelevantResults signals that nothing in the catalog matched above threshold.
	ErrNoRelevantResults = errors.New("no relevant results")
	// ErrRetrievalFailure signals a storage collaborator failure.
	ErrRetrievalFailure = errors.New("retrieval failure")
)
