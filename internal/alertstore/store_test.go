package alertstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"WhaleSentinel/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv KV, ttl time.Duration) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, ttl)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestStore_CreateDedup(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(t, kv, 24*time.Hour)

	created, err := s.Create(ctx, "BTCUSDT", t0)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	for i := 1; i <= 5; i++ {
		created, err := s.Create(ctx, "BTCUSDT", t0.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if created {
			t.Errorf("repeat %d: expected dedup", i)
		}
	}

	now := t0.Add(3 * time.Hour)
	age, ok := s.Age("BTCUSDT", now)
	if !ok || age != 3*time.Hour {
		t.Errorf("expected age 3h, got %v (ok=%v)", age, ok)
	}
	persisted, ok, _ := kv.Get(ctx, "BTCUSDT")
	if !ok || !persisted.Equal(t0) {
		t.Errorf("persisted timestamp should stay %v, got %v", t0, persisted)
	}
	if s.Len() != 1 {
		t.Errorf("expected one record, got %d", s.Len())
	}
}

func TestStore_SweepExpired(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	s := newTestStore(t, kv, 12*time.Hour)

	_, _ = s.Create(ctx, "OLDUSDT", t0)
	_, _ = s.Create(ctx, "EDGEUSDT", t0.Add(time.Hour))
	_, _ = s.Create(ctx, "NEWUSDT", t0.Add(6*time.Hour))

	now := t0.Add(13 * time.Hour) // OLD is 13h, EDGE exactly 12h, NEW 7h
	removed, err := s.SweepExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 || removed[0] != "EDGEUSDT" || removed[1] != "OLDUSDT" {
		t.Fatalf("expected [EDGEUSDT OLDUSDT], got %v", removed)
	}
	if !s.Has("NEWUSDT") || s.Has("OLDUSDT") || s.Has("EDGEUSDT") {
		t.Error("unexpected records after sweep")
	}
	if keys, _ := kv.Keys(ctx); len(keys) != 1 || keys[0] != "NEWUSDT" {
		t.Errorf("kv should only hold NEWUSDT, got %v", keys)
	}

	again, err := s.SweepExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second sweep should remove nothing, got %v", again)
	}
}

func TestStore_RecreateAfterExpiry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV(), time.Hour)
	_, _ = s.Create(ctx, "AUSDT", t0)
	_, _ = s.SweepExpired(ctx, t0.Add(time.Hour))

	later := t0.Add(2 * time.Hour)
	created, _ := s.Create(ctx, "AUSDT", later)
	if !created {
		t.Fatal("expected a fresh record after expiry")
	}
	r, _ := s.Get("AUSDT")
	if !r.CreatedAt.Equal(later) {
		t.Errorf("expected new createdAt %v, got %v", later, r.CreatedAt)
	}
}

func TestStore_AnnotateAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV(), time.Hour)

	s.Annotate("GHOSTUSDT", model.KindExit, "ignored")
	if s.Has("GHOSTUSDT") {
		t.Error("annotate must not create records")
	}

	_, _ = s.Create(ctx, "AUSDT", t0)
	s.Annotate("AUSDT", model.KindExit, "leaving")
	r, _ := s.Get("AUSDT")
	if r.Kind != model.KindExit || r.Message != "leaving" || !r.CreatedAt.Equal(t0) {
		t.Errorf("unexpected record after annotate: %+v", r)
	}

	if err := s.Remove(ctx, "AUSDT"); err != nil {
		t.Fatal(err)
	}
	if s.Has("AUSDT") {
		t.Error("record should be removed")
	}
	if err := s.Remove(ctx, "AUSDT"); err != nil {
		t.Errorf("removing an absent symbol should be a no-op, got %v", err)
	}
}

func TestStore_PresenceIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV(), time.Hour)
	_, _ = s.Create(ctx, "AUSDT", t0)

	p := s.Presence()
	_, _ = s.Create(ctx, "BUSDT", t0)
	if !p.Has("AUSDT") || p.Has("BUSDT") {
		t.Error("presence must not see later writes")
	}
}

func TestStore_PresenceCarriesRule(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV(), time.Hour)
	_, _ = s.Create(ctx, "AUSDT", t0)
	s.SetRule("AUSDT", "oscillator")
	s.SetRule("ZUSDT", "volume") // absent, ignored

	p := s.Presence()
	if p.Owner("AUSDT") != "oscillator" || p.Has("ZUSDT") {
		t.Errorf("unexpected presence %v", p)
	}
	if r, _ := s.Get("AUSDT"); r.Rule != "oscillator" {
		t.Errorf("record rule = %q", r.Rule)
	}
}

func TestStore_ActiveOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryKV(), time.Hour)
	_, _ = s.Create(ctx, "CUSDT", t0.Add(time.Minute))
	_, _ = s.Create(ctx, "BUSDT", t0)
	_, _ = s.Create(ctx, "AUSDT", t0)

	active := s.Active()
	want := []string{"AUSDT", "BUSDT", "CUSDT"}
	for i, sym := range want {
		if active[i].Symbol != sym {
			t.Errorf("position %d: expected %s, got %s", i, sym, active[i].Symbol)
		}
	}
}

func TestStore_LoadsPersisted(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	_ = kv.Set(ctx, "AUSDT", t0)
	s := newTestStore(t, kv, time.Hour)

	if !s.Has("AUSDT") {
		t.Fatal("expected persisted record to load")
	}
	if created, _ := s.Create(ctx, "AUSDT", t0.Add(time.Minute)); created {
		t.Error("loaded record must dedup")
	}
}

func TestNewStore_RejectsZeroTTL(t *testing.T) {
	if _, err := NewStore(context.Background(), NewMemoryKV(), 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

type flakyKV struct {
	*MemoryKV
	failSet    bool
	failDelete map[string]bool
}

var errBackend = errors.New("backend down")

func (f *flakyKV) Set(ctx context.Context, symbol string, at time.Time) error {
	if f.failSet {
		return errBackend
	}
	return f.MemoryKV.Set(ctx, symbol, at)
}

func (f *flakyKV) Delete(ctx context.Context, symbol string) error {
	if f.failDelete[symbol] {
		return errBackend
	}
	return f.MemoryKV.Delete(ctx, symbol)
}

func TestStore_BackendFailures(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{MemoryKV: NewMemoryKV(), failDelete: map[string]bool{}}
	s := newTestStore(t, kv, time.Hour)

	_, _ = s.Create(ctx, "AUSDT", t0)
	_, _ = s.Create(ctx, "BUSDT", t0)

	kv.failSet = true
	if created, err := s.Create(ctx, "CUSDT", t0); created || !errors.Is(err, errBackend) {
		t.Errorf("expected failed create, got created=%v err=%v", created, err)
	}
	if s.Has("CUSDT") {
		t.Error("failed create must not leave a record")
	}

	kv.failDelete["AUSDT"] = true
	removed, err := s.SweepExpired(ctx, t0.Add(2*time.Hour))
	if !errors.Is(err, errBackend) {
		t.Errorf("expected joined backend error, got %v", err)
	}
	if len(removed) != 1 || removed[0] != "BUSDT" {
		t.Errorf("expected only BUSDT removed, got %v", removed)
	}
	if !s.Has("AUSDT") {
		t.Error("record with failed delete should stay for the next sweep")
	}
}
