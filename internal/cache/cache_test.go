package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestSetGetRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	c := New(nil, WithClock(clock.Now))
	ctx := context.Background()

	payload := map[string]any{"symbol": "AAPL", "price": 187.45}
	if err := c.Set(ctx, "data_AAPL", payload, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, ok := c.Get(ctx, "data_AAPL")
	if !ok {
		t.Fatal("expected cache hit immediately after set")
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal cached value: %v", err)
	}
	if got["symbol"] != "AAPL" {
		t.Errorf("expected symbol AAPL, got %v", got["symbol"])
	}
	if got["price"] != 187.45 {
		t.Errorf("expected price 187.45, got %v", got["price"])
	}
}

func TestExpiryIsLazy(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	c := New(nil, WithClock(clock.Now))
	ctx := context.Background()

	if err := c.Set(ctx, "prediction_MSFT", "v", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if _, ok := c.Get(ctx, "prediction_MSFT"); !ok {
		t.Error("expected hit before TTL")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get(ctx, "prediction_MSFT"); ok {
		t.Error("expected miss after TTL")
	}
}

func TestIsFreshBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	c := New(nil, WithClock(clock.Now))

	if !c.IsFresh(clock.now.Add(-1*time.Hour), 24*time.Hour) {
		t.Error("1-hour-old entry should be fresh against a 24h limit")
	}
	if c.IsFresh(clock.now.Add(-25*time.Hour), 24*time.Hour) {
		t.Error("25-hour-old entry should be stale against a 24h limit")
	}
}

func TestPersistentTierBackfillsMemory(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	// First cache instance writes through to disk.
	c1 := New(store, WithClock(clock.Now))
	ctx := context.Background()
	if err := c1.Set(ctx, "data_TSLA", "payload", time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A second instance simulates a process restart: empty memory, same dir.
	c2 := New(store, WithClock(clock.Now))
	raw, ok := c2.Get(ctx, "data_TSLA")
	if !ok {
		t.Fatal("expected persistent hit after restart")
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || v != "payload" {
		t.Errorf("expected payload, got %s (err %v)", raw, err)
	}

	// Memory tier should now be populated.
	c2.mu.RLock()
	_, inMem := c2.mem["data_TSLA"]
	c2.mu.RUnlock()
	if !inMem {
		t.Error("expected persistent hit to backfill the memory tier")
	}
}

func TestMemoryCapForcesPersistentRead(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	c := New(store, WithClock(clock.Now), WithMemoryCap(5*time.Minute))
	ctx := context.Background()
	if err := c.Set(ctx, "quote_NVDA", 42.0, 24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(10 * time.Minute)

	// Memory copy is past its cap but the entry itself is still within TTL,
	// so the persistent tier serves it.
	if _, ok := c.Get(ctx, "quote_NVDA"); !ok {
		t.Error("expected hit via persistent tier after memory cap elapsed")
	}
}

type failingStore struct{}

func (failingStore) Get(string) (*Entry, error) { return nil, errors.New("disk on fire") }
func (failingStore) Set(Entry) error            { return errors.New("disk on fire") }
func (failingStore) Delete(string) error        { return errors.New("disk on fire") }
func (failingStore) Close() error               { return nil }

func TestStoreErrorsAreTreatedAsMiss(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	c := New(failingStore{}, WithClock(clock.Now))
	ctx := context.Background()

	// Set must not fail the request even when the persistent write errors.
	if err := c.Set(ctx, "data_AMD", "v", time.Hour); err != nil {
		t.Fatalf("set should swallow store errors, got %v", err)
	}

	// The memory tier still serves the value.
	if _, ok := c.Get(ctx, "data_AMD"); !ok {
		t.Error("expected memory hit despite failing store")
	}

	// A cold key falls through to the store error and reads as a miss.
	if _, ok := c.Get(ctx, "data_COLD"); ok {
		t.Error("expected miss when the store errors")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	entry := Entry{
		Key:        "earnings_AAPL",
		Value:      json.RawMessage(`{"eps":1.52}`),
		WrittenAt:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		TTLSeconds: 3600,
	}
	if err := store.Set(entry); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get("earnings_AAPL")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if string(got.Value) != `{"eps":1.52}` {
		t.Errorf("value mismatch: %s", got.Value)
	}
	if got.TTLSeconds != 3600 {
		t.Errorf("ttl mismatch: %d", got.TTLSeconds)
	}

	if absent, err := store.Get("earnings_MISSING"); err != nil || absent != nil {
		t.Errorf("expected clean miss, got %v, %v", absent, err)
	}

	if err := store.Delete("earnings_AAPL"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone, _ := store.Get("earnings_AAPL"); gone != nil {
		t.Error("expected entry to be gone after delete")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	defer store.Close()

	entry := Entry{
		Key:        "prediction_GOOG",
		Value:      json.RawMessage(`{"action":"HOLD"}`),
		WrittenAt:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		TTLSeconds: 86400,
	}
	if err := store.Set(entry); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get("prediction_GOOG")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if string(got.Value) != `{"action":"HOLD"}` {
		t.Errorf("value mismatch: %s", got.Value)
	}
	if !got.WrittenAt.Equal(entry.WrittenAt) {
		t.Errorf("written_at mismatch: %v vs %v", got.WrittenAt, entry.WrittenAt)
	}

	// Upsert replaces the value in place.
	entry.Value = json.RawMessage(`{"action":"BUY"}`)
	if err := store.Set(entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ = store.Get("prediction_GOOG")
	if string(got.Value) != `{"action":"BUY"}` {
		t.Errorf("expected upserted value, got %s", got.Value)
	}
}
