// Package alertstore keeps at most one alert per symbol across polling
// cycles. Store owns deduplication and expiry; the KV beneath it only
// persists creation timestamps.
//
// Store is not safe for concurrent use. The scheduler is its single owner.
package alertstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"WhaleSentinel/internal/model"
	"WhaleSentinel/internal/strategy"
)

// Store is the alert lifecycle: Absent -> Active on entry, Active -> Absent on
// expiry or explicit removal.
type Store struct {
	kv      KV
	ttl     time.Duration
	records map[string]*model.AlertRecord
}

// NewStore loads the records already persisted in kv.
func NewStore(ctx context.Context, kv KV, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, errors.New("alert ttl must be positive")
	}
	s := &Store{kv: kv, ttl: ttl, records: make(map[string]*model.AlertRecord)}

	keys, err := kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list persisted alerts: %w", err)
	}
	for _, k := range keys {
		createdAt, ok, err := kv.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("load alert %s: %w", k, err)
		}
		if !ok {
			continue
		}
		s.records[k] = &model.AlertRecord{Symbol: k, CreatedAt: createdAt, Kind: model.KindEntry}
	}
	return s, nil
}

// TTL returns the maximum age of a record.
func (s *Store) TTL() time.Duration { return s.ttl }

// Len returns the number of live records.
func (s *Store) Len() int { return len(s.records) }

// Has reports whether symbol holds a record.
func (s *Store) Has(symbol string) bool {
	_, ok := s.records[symbol]
	return ok
}

// Get returns a copy of the record for symbol.
func (s *Store) Get(symbol string) (model.AlertRecord, bool) {
	r, ok := s.records[symbol]
	if !ok {
		return model.AlertRecord{}, false
	}
	return *r, true
}

// Create records symbol at now. It is a no-op returning false when a record
// already exists; the existing CreatedAt is kept.
func (s *Store) Create(ctx context.Context, symbol string, now time.Time) (bool, error) {
	if s.Has(symbol) {
		return false, nil
	}
	if err := s.kv.Set(ctx, symbol, now); err != nil {
		return false, fmt.Errorf("persist alert %s: %w", symbol, err)
	}
	s.records[symbol] = &model.AlertRecord{Symbol: symbol, CreatedAt: now, Kind: model.KindEntry}
	return true, nil
}

// Annotate changes what a live record displays. Absent symbols are ignored.
func (s *Store) Annotate(symbol string, kind model.SignalKind, message string) {
	if r, ok := s.records[symbol]; ok {
		r.Kind = kind
		r.Message = message
	}
}

// SetRule records which rule raised the alert for symbol.
func (s *Store) SetRule(symbol, rule string) {
	if r, ok := s.records[symbol]; ok {
		r.Rule = rule
	}
}

// Remove clears the record for symbol.
func (s *Store) Remove(ctx context.Context, symbol string) error {
	if !s.Has(symbol) {
		return nil
	}
	if err := s.kv.Delete(ctx, symbol); err != nil {
		return fmt.Errorf("delete alert %s: %w", symbol, err)
	}
	delete(s.records, symbol)
	return nil
}

// Age returns how long symbol has held its record.
func (s *Store) Age(symbol string, now time.Time) (time.Duration, bool) {
	r, ok := s.records[symbol]
	if !ok {
		return 0, false
	}
	return now.Sub(r.CreatedAt), true
}

// SweepExpired deletes every record with now - CreatedAt >= TTL and returns
// the removed symbols in order. Records whose deletion fails stay live and
// are retried on the next sweep.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) ([]string, error) {
	var (
		removed []string
		errs    []error
	)
	for _, sym := range s.symbols() {
		if now.Sub(s.records[sym].CreatedAt) < s.ttl {
			continue
		}
		if err := s.kv.Delete(ctx, sym); err != nil {
			errs = append(errs, fmt.Errorf("delete expired alert %s: %w", sym, err))
			continue
		}
		delete(s.records, sym)
		removed = append(removed, sym)
	}
	return removed, errors.Join(errs...)
}

// Presence captures the current symbols and their owning rules for classification.
func (s *Store) Presence() strategy.OwnedPresence {
	p := make(strategy.OwnedPresence, len(s.records))
	for sym, r := range s.records {
		p[sym] = r.Rule
	}
	return p
}

// Active returns copies of all records, oldest first.
func (s *Store) Active() []model.AlertRecord {
	out := make([]model.AlertRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func (s *Store) symbols() []string {
	syms := make([]string, 0, len(s.records))
	for sym := range s.records {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
