package alertstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	at := time.UnixMilli(t0.UnixMilli())

	if _, ok, err := kv.Get(ctx, "AUSDT"); err != nil || ok {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "BUSDT", at); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, "AUSDT", at.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	got, ok, err := kv.Get(ctx, "BUSDT")
	if err != nil || !ok || !got.Equal(at) {
		t.Fatalf("get: %v %v %v", got, ok, err)
	}
	keys, err := kv.Keys(ctx)
	if err != nil || len(keys) != 2 || keys[0] != "AUSDT" || keys[1] != "BUSDT" {
		t.Fatalf("keys: %v %v", keys, err)
	}
	if err := kv.Delete(ctx, "AUSDT"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, "AUSDT"); ok {
		t.Error("deleted key still present")
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "alerts.json")
	kv, err := NewFileKV(path)
	if err != nil {
		t.Fatal(err)
	}
	exerciseKV(t, kv)

	reopened, err := NewFileKV(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, _ := reopened.Get(context.Background(), "BUSDT")
	if !ok || !got.Equal(time.UnixMilli(t0.UnixMilli())) {
		t.Errorf("expected BUSDT to survive reopen, got %v %v", got, ok)
	}
}

func TestFileKV_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileKV(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	exerciseKV(t, kv)

	// Upsert keeps one row per symbol.
	ctx := context.Background()
	later := time.UnixMilli(t0.Add(time.Hour).UnixMilli())
	if err := kv.Set(ctx, "BUSDT", later); err != nil {
		t.Fatal(err)
	}
	got, _, _ := kv.Get(ctx, "BUSDT")
	if !got.Equal(later) {
		t.Errorf("expected %v after upsert, got %v", later, got)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	s, err := NewStore(ctx, reopened, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Has("BUSDT") {
		t.Error("store should load records from sqlite")
	}
}
