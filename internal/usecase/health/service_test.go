package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
}

func TestCheck_CacheDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_NilCacheSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("nil cache must not be checked")
	}
}
