package search

import (
	"context"

	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

// Retriever defines the storage contract for the retrieval cascade.
// Each method issues exactly one request to the storage collaborator.
type Retriever interface {
	SearchRanked(ctx context.Context, q domain.QueryDescriptor, limit, offset int) ([]domain.Candidate, error)
	SearchTokens(ctx context.Context, tokens []string, limit, offset int) ([]domain.Candidate, error)
	SearchNearest(ctx context.Context, text string, limit int) ([]domain.Candidate, error)
	Count(ctx context.Context, q domain.QueryDescriptor) (int, error)
}

// PageCache reads and writes whole result pages keyed by
// (query, limit, offset). Implementations must never fail a request:
// read errors present as misses, write errors are swallowed.
type PageCache interface {
	Get(ctx context.Context, query string, limit, offset int) (domain.ResultPage, bool)
	Put(ctx context.Context, query string, limit, offset int, page domain.ResultPage)
}
