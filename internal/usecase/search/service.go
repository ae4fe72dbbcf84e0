package search

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

// Strategy names for metrics and tests.
const (
	StrategyRanked  = "ranked"
	StrategyTokens  = "tokens"
	StrategyNearest = "nearest"
)

// Service runs the query pipeline: normalize, cache gate, retrieval cascade,
// scoring, highlighting, envelope assembly.
type Service struct {
	retriever Retriever
	cache     PageCache

	defaultPageSize int
	maxPageSize     int
	timeout         time.Duration

	strategyTotal *prometheus.CounterVec
	duration      prometheus.Observer
	emptyTotal    prometheus.Counter
}

// New creates a search service. cache may be nil to disable the cache gate.
func New(retriever Retriever, cache PageCache) *Service {
	return &Service{
		retriever:       retriever,
		cache:           cache,
		defaultPageSize: domain.DefaultPageSize,
		maxPageSize:     domain.MaxPageSize,
	}
}

// WithPagination overrides page size bounds.
func (s *Service) WithPagination(def, max int) *Service {
	if def > 0 {
		s.defaultPageSize = def
	}
	if max > 0 {
		s.maxPageSize = max
	}
	return s
}

// WithTimeout sets an overall per-request deadline covering retrieval and
// count. On expiry the pipeline fails with ErrRetrievalFailure.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithMetrics connects pipeline metrics, passed explicitly. Any of them may be nil.
func (s *Service) WithMetrics(
	strategyTotal *prometheus.CounterVec, duration prometheus.Observer, emptyTotal prometheus.Counter,
) *Service {
	s.strategyTotal = strategyTotal
	s.duration = duration
	s.emptyTotal = emptyTotal
	return s
}

// Search answers a free-text query with a ranked, paginated, highlighted page.
// Error taxonomy: ErrInvalidQuery for caller mistakes, ErrNoRelevantResults
// when nothing survives acceptance, ErrRetrievalFailure for collaborator
// failures. Cache failures never surface.
func (s *Service) Search(ctx context.Context, rawQuery string, limit, offset int) (domain.ResultPage, error) {
	q, err := domain.ParseQuery(rawQuery)
	if err != nil {
		return domain.ResultPage{}, err
	}
	limit, offset = domain.ClampPage(limit, offset, s.defaultPageSize, s.maxPageSize)

	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, q.RawText, limit, offset); ok {
			page.ServedFromCache = true
			return page, nil
		}
	}

	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Count is independent of the cascade and read-only, so it runs alongside.
	g, gctx := errgroup.WithContext(ctx)

	var total int
	g.Go(func() error {
		n, err := s.retriever.Count(gctx, q)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		total = n
		return nil
	})

	var candidates []domain.Candidate
	var firedStrategy string
	g.Go(func() error {
		var err error
		candidates, firedStrategy, err = s.retrieve(gctx, q, limit, offset)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.ResultPage{}, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
	}
	s.markStrategy(firedStrategy)

	results := scoreCandidates(dedupe(candidates), q.LengthClass, limit)
	if len(results) == 0 {
		if s.emptyTotal != nil {
			s.emptyTotal.Inc()
		}
		return domain.ResultPage{}, domain.ErrNoRelevantResults
	}

	term := q.SearchText()
	for i := range results {
		results[i].NameHighlight = highlight(results[i].Name, term)
		results[i].DescHighlight = highlight(results[i].Description, term)
	}

	page := domain.ResultPage{
		Total:   total,
		Count:   len(results),
		Limit:   limit,
		Offset:  offset,
		Results: results,
	}

	if s.cache != nil {
		s.cache.Put(ctx, q.RawText, limit, offset, page)
	}
	if s.duration != nil {
		s.duration.Observe(time.Since(start).Seconds())
	}
	return page, nil
}

// strategy is one step of the retrieval cascade: first non-empty result wins.
type strategy struct {
	name string
	run  func(ctx context.Context) ([]domain.Candidate, error)
}

// retrieve tries strategies strictly in order, stopping at the first that
// yields candidates. A later strategy is never attempted once an earlier one
// produced rows, and any storage error aborts the whole cascade.
func (s *Service) retrieve(
	ctx context.Context, q domain.QueryDescriptor, limit, offset int,
) ([]domain.Candidate, string, error) {
	cascade := []strategy{
		{StrategyRanked, func(ctx context.Context) ([]domain.Candidate, error) {
			return s.retriever.SearchRanked(ctx, q, limit, offset)
		}},
		{StrategyTokens, func(ctx context.Context) ([]domain.Candidate, error) {
			tokens := q.Tokens()
			if len(tokens) < 2 {
				return nil, nil
			}
			return s.retriever.SearchTokens(ctx, tokens, limit, offset)
		}},
		{StrategyNearest, func(ctx context.Context) ([]domain.Candidate, error) {
			return s.retriever.SearchNearest(ctx, q.SearchText(), limit)
		}},
	}

	for _, st := range cascade {
		candidates, err := st.run(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", st.name, err)
		}
		if len(candidates) > 0 {
			return candidates, st.name, nil
		}
	}
	return nil, StrategyNearest, nil
}

func (s *Service) markStrategy(name string) {
	if s.strategyTotal != nil && name != "" {
		s.strategyTotal.WithLabelValues(name).Inc()
	}
}
