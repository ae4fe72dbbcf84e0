package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Di-Twin/nlp-search-lite/internal/db"
	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
	lastKey string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.lastKey = key
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func testPage() domain.ResultPage {
	return domain.ResultPage{
		Total: 3, Count: 1, Limit: 10, Offset: 0,
		Results: []domain.Candidate{{
			ID: "1", Name: "Almonds", Description: "Raw almonds",
			CompositeScore: 1.8, NameHighlight: "<mark>Almonds</mark>",
		}},
	}
}

// --- Tests ---

func TestCache_RoundTrip(t *testing.T) {
	ms := newMockStore()
	c := New(ms, 5*time.Minute, nil, zap.NewNop())

	c.Put(context.Background(), "almond", 10, 0, testPage())

	got, ok := c.Get(context.Background(), "almond", 10, 0)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Total != 3 || got.Count != 1 || len(got.Results) != 1 {
		t.Errorf("unexpected page: %+v", got)
	}
	if got.Results[0].NameHighlight != "<mark>Almonds</mark>" {
		t.Errorf("highlight not preserved: %q", got.Results[0].NameHighlight)
	}
	if ms.lastTTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", ms.lastTTL)
	}
}

func TestCache_MissOnDifferentPagination(t *testing.T) {
	ms := newMockStore()
	c := New(ms, time.Minute, nil, zap.NewNop())

	c.Put(context.Background(), "almond", 10, 0, testPage())

	if _, ok := c.Get(context.Background(), "almond", 10, 10); ok {
		t.Error("different offset must not hit")
	}
	if _, ok := c.Get(context.Background(), "almond", 5, 0); ok {
		t.Error("different limit must not hit")
	}
	if _, ok := c.Get(context.Background(), "walnut", 10, 0); ok {
		t.Error("different query must not hit")
	}
}

func TestCache_GetErrorDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("connection reset")
	c := New(ms, time.Minute, nil, zap.NewNop())

	if _, ok := c.Get(context.Background(), "almond", 10, 0); ok {
		t.Fatal("store error must read as miss")
	}
}

func TestCache_PutErrorSwallowed(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("connection reset")
	c := New(ms, time.Minute, nil, zap.NewNop())

	// Must not panic or surface the error.
	c.Put(context.Background(), "almond", 10, 0, testPage())
}

func TestCache_CorruptEntryDegradesToMiss(t *testing.T) {
	ms := newMockStore()
	c := New(ms, time.Minute, nil, zap.NewNop())

	c.Put(context.Background(), "almond", 10, 0, testPage())
	ms.data[ms.lastKey] = []byte("{not json")

	if _, ok := c.Get(context.Background(), "almond", 10, 0); ok {
		t.Fatal("corrupt entry must read as miss")
	}
}
