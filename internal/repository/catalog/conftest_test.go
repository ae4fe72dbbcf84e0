package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier implements the querier consumer interface for tests.
type fakeQuerier struct {
	rows    [][]any
	err     error
	lastSQL string
	args    []any
	calls   int
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls++
	f.lastSQL = sql
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{rows: f.rows, idx: -1}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls++
	f.lastSQL = sql
	f.args = args
	return &fakeRow{values: firstRow(f.rows), err: f.err}
}

func firstRow(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// fakeRows implements pgx.Rows over an in-memory value grid.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.rows[r.idx], dest)
}

// fakeRow implements pgx.Row.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values, %d targets", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *bool:
			*d = v.(bool)
		case *int:
			*d = v.(int)
		default:
			return fmt.Errorf("scan: unsupported target %T", dest[i])
		}
	}
	return nil
}

func newTestRepo(t *testing.T, fq *fakeQuerier) *Repo {
	t.Helper()
	return &Repo{db: fq}
}

// rankedRow builds a full strategy-1 result row.
func rankedRow(id, name, desc string, rank, nameSim, descSim float64, exact bool) []any {
	return []any{id, name, desc, "", rank, nameSim, descSim, exact, false, false}
}
