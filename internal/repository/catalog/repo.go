package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

// querier is the consumer interface over pgxpool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements usecase/search.Retriever on top of Postgres.
// It issues one SQL request per retrieval strategy and never combines them;
// cascade ordering lives in the use case layer.
type Repo struct {
	pool *pgxpool.Pool
	db   querier
}

// New creates a catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, db: pool}
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// rankedSQL is the primary strategy: weighted full-text relevance (name
// weighted above description) OR trigram similarity OR prefix match OR,
// for phrase queries, a literal substring match. DISTINCT ON collapses
// duplicate (name, description) pairs keeping the best-ranked row.
const rankedSQL = `
WITH scored AS (
    SELECT DISTINCT ON (f.name, f.description)
        f.id::text AS id,
        f.name,
        COALESCE(f.description, '') AS description,
        COALESCE(f.image_url, '') AS image_url,
        ts_rank(
            setweight(to_tsvector('english', f.name), 'A') ||
            setweight(to_tsvector('english', COALESCE(f.description, '')), 'B'),
            plainto_tsquery('english', $1)
        ) AS rank,
        similarity(f.name, $1) AS name_sim,
        similarity(COALESCE(f.description, ''), $1) AS desc_sim,
        LOWER(f.name) = LOWER($1) AS exact_name,
        f.name ILIKE $2 AS prefix_name,
        COALESCE(f.description, '') ILIKE $2 AS prefix_desc
    FROM foods f
    WHERE (
        setweight(to_tsvector('english', f.name), 'A') ||
        setweight(to_tsvector('english', COALESCE(f.description, '')), 'B')
    ) @@ plainto_tsquery('english', $1)
        OR f.name % $1
        OR COALESCE(f.description, '') % $1
        OR f.name ILIKE $2
        OR COALESCE(f.description, '') ILIKE $2
        OR ($3 AND (f.name ILIKE $4 OR COALESCE(f.description, '') ILIKE $4))
    ORDER BY f.name, f.description, exact_name DESC, rank DESC, name_sim DESC, desc_sim DESC
)
SELECT id, name, description, image_url, rank, name_sim, desc_sim, exact_name, prefix_name, prefix_desc
FROM scored
ORDER BY exact_name DESC, rank DESC, name_sim DESC, desc_sim DESC
LIMIT $5 OFFSET $6`

// SearchRanked runs the weighted full-text + trigram + prefix strategy.
func (r *Repo) SearchRanked(
	ctx context.Context, q domain.QueryDescriptor, limit, offset int,
) ([]domain.Candidate, error) {
	text := q.SearchText()
	phraseLike := ""
	if q.IsPhrase {
		phraseLike = "%" + q.PhraseBody + "%"
	}

	rows, err := r.db.Query(ctx, rankedSQL, text, text+"%", q.IsPhrase, phraseLike, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.ImageURL,
			&c.Rank, &c.NameSimilarity, &c.DescSimilarity,
			&c.ExactNameMatch, &c.PrefixNameMatch, &c.PrefixDescMatch,
		); err != nil {
			return nil, fmt.Errorf("ranked search scan: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranked search rows: %w", err)
	}
	return candidates, nil
}

// SearchTokens runs the word-split fallback: any token as a substring of
// either field. No relevance signals are produced; scorer defaults apply.
func (r *Repo) SearchTokens(
	ctx context.Context, tokens []string, limit, offset int,
) ([]domain.Candidate, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	sql, args := tokensSQL(tokens, limit, offset)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("token search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("token search scan: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("token search rows: %w", err)
	}
	return candidates, nil
}

// nearestSQL is the last-resort strategy: the closest records across the
// whole catalog by similarity and edit distance, with no WHERE filter.
// Rows this loose only survive if the scorer accepts them.
// levenshtein() rejects inputs longer than 255 chars, hence the LEFT guards.
const nearestSQL = `
SELECT
    f.id::text AS id,
    f.name,
    COALESCE(f.description, '') AS description,
    COALESCE(f.image_url, '') AS image_url,
    similarity(f.name, $1) AS name_sim,
    similarity(COALESCE(f.description, ''), $1) AS desc_sim,
    levenshtein(LOWER(LEFT(f.name, 255)), LOWER(LEFT($1, 255))) AS name_dist,
    levenshtein(LOWER(LEFT(COALESCE(f.description, ''), 255)), LOWER(LEFT($1, 255))) AS desc_dist
FROM foods f
ORDER BY name_sim DESC, desc_sim DESC, name_dist ASC, desc_dist ASC
LIMIT $2`

// SearchNearest runs the global similarity fallback.
func (r *Repo) SearchNearest(
	ctx context.Context, text string, limit int,
) ([]domain.Candidate, error) {
	rows, err := r.db.Query(ctx, nearestSQL, text, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var nameDist, descDist int
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.ImageURL,
			&c.NameSimilarity, &c.DescSimilarity, &nameDist, &descDist,
		); err != nil {
			return nil, fmt.Errorf("nearest search scan: %w", err)
		}
		c.NameEditDistance = &nameDist
		c.DescEditDistance = &descDist
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest search rows: %w", err)
	}
	return candidates, nil
}

// countSQL reuses the primary strategy predicate regardless of which
// strategy produced the page; the result is advisory pagination metadata.
const countSQL = `
SELECT COUNT(*)
FROM foods f
WHERE (
    setweight(to_tsvector('english', f.name), 'A') ||
    setweight(to_tsvector('english', COALESCE(f.description, '')), 'B')
) @@ plainto_tsquery('english', $1)
    OR f.name % $1
    OR COALESCE(f.description, '') % $1
    OR f.name ILIKE $2
    OR COALESCE(f.description, '') ILIKE $2
    OR ($3 AND (f.name ILIKE $4 OR COALESCE(f.description, '') ILIKE $4))`

// Count returns the total number of records matching the primary predicate.
func (r *Repo) Count(ctx context.Context, q domain.QueryDescriptor) (int, error) {
	text := q.SearchText()
	phraseLike := ""
	if q.IsPhrase {
		phraseLike = "%" + q.PhraseBody + "%"
	}

	var total int
	err := r.db.QueryRow(ctx, countSQL, text, text+"%", q.IsPhrase, phraseLike).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}
