package duckdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertTestSamples(t *testing.T, store *Store, samples ...MetricSample) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(samples))
	for _, s := range samples {
		stored, err := store.InsertSample(context.Background(), s, nil)
		if err != nil {
			t.Fatalf("InsertSample: %v", err)
		}
		ids = append(ids, stored.ID)
	}
	return ids
}

func sample(host string, cpu float64) MetricSample {
	return MetricSample{
		Host:      host,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		CPUPct:    cpu,
		MemPct:    40,
		DiskPct:   55.5,
		RxKbps:    12.5,
		TxKbps:    3.25,
	}
}

func TestInsertSample_AssignsIncreasingIDs(t *testing.T) {
	store := newTestStore(t)

	ids := insertTestSamples(t, store, sample("a", 1), sample("b", 2), sample("c", 3))
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not increasing: %v", ids)
		}
	}

	count, err := store.SampleCount(context.Background())
	if err != nil {
		t.Fatalf("SampleCount: %v", err)
	}
	if count != 3 {
		t.Errorf("SampleCount = %d, want 3", count)
	}
}

func TestLatestSamples_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	insertTestSamples(t, store, sample("first", 10), sample("second", 20))

	got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 2})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Host != "second" || got[1].Host != "first" {
		t.Errorf("order = [%s %s], want [second first]", got[0].Host, got[1].Host)
	}
}

func TestLatestSamples_RoundTripsFields(t *testing.T) {
	store := newTestStore(t)

	ping := 17.25
	in := sample("web-1", 99.5)
	in.PingMs = &ping
	insertTestSamples(t, store, in)

	got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 1})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	out := got[0]
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("ts = %v, want %v", out.Timestamp, in.Timestamp)
	}
	if out.Timestamp.Location() != time.UTC {
		t.Errorf("ts location = %v, want UTC", out.Timestamp.Location())
	}
	if out.CPUPct != 99.5 || out.MemPct != 40 || out.DiskPct != 55.5 || out.RxKbps != 12.5 || out.TxKbps != 3.25 {
		t.Errorf("metrics mismatch: %+v", out)
	}
	if out.PingMs == nil || *out.PingMs != ping {
		t.Errorf("ping_ms = %v, want %v", out.PingMs, ping)
	}
}

func TestLatestSamples_NullPing(t *testing.T) {
	store := newTestStore(t)
	insertTestSamples(t, store, sample("no-ping", 5))

	got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 1})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	if got[0].PingMs != nil {
		t.Errorf("ping_ms = %v, want nil", *got[0].PingMs)
	}
}

func TestLatestSamples_ClampsLimit(t *testing.T) {
	store := newTestStore(t)
	insertTestSamples(t, store, sample("a", 1), sample("b", 2), sample("c", 3))

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 1},
		{limit: -7, want: 1},
		{limit: 2, want: 2},
		{limit: 10000, want: 3},
	}
	for _, tt := range tests {
		got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: tt.limit})
		if err != nil {
			t.Fatalf("LatestSamples(%d): %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("LatestSamples(%d) len = %d, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestLatestSamples_HostFilter(t *testing.T) {
	store := newTestStore(t)
	insertTestSamples(t, store, sample("db-1", 1), sample("web-1", 2), sample("db-1", 3))

	got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 50, Host: "db-1"})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, s := range got {
		if s.Host != "db-1" {
			t.Errorf("host = %q, want db-1", s.Host)
		}
	}
	if got[0].CPUPct != 3 {
		t.Errorf("newest cpu_pct = %v, want 3", got[0].CPUPct)
	}
}

func TestLatestSamples_Empty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 10})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestNewStore_ReopenKeepsSamples(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "metrics.duckdb")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	insertTestSamples(t, store, sample("persist", 1))
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	ids := insertTestSamples(t, reopened, sample("after", 2))
	if ids[0] <= 1 {
		t.Errorf("id after reopen = %d, want > 1", ids[0])
	}
	count, err := reopened.SampleCount(context.Background())
	if err != nil {
		t.Fatalf("SampleCount: %v", err)
	}
	if count != 2 {
		t.Errorf("SampleCount = %d, want 2", count)
	}
}

func TestInsertSample_CancelledContext(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.InsertSample(ctx, sample("x", 1), nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestInsertSample_StampUnderLock(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		base.Add(2 * time.Second),
		base,
		base.Add(3*time.Second + 1500*time.Nanosecond),
	}
	var got []MetricSample
	for i, ts := range stamps {
		ts := ts
		stored, err := store.InsertSample(context.Background(), sample("h", float64(i)), func() time.Time { return ts })
		if err != nil {
			t.Fatalf("InsertSample: %v", err)
		}
		got = append(got, stored)
	}

	want := []time.Time{
		base.Add(2 * time.Second),
		base.Add(2 * time.Second),
		base.Add(3*time.Second + time.Microsecond),
	}
	for i := range got {
		if !got[i].Timestamp.Equal(want[i]) {
			t.Errorf("sample %d ts = %v, want %v", i, got[i].Timestamp, want[i])
		}
	}

	latest, err := store.LatestSamples(context.Background(), LatestQuery{Limit: 3})
	if err != nil {
		t.Fatalf("LatestSamples: %v", err)
	}
	for i, s := range latest {
		if s.ID != got[len(got)-1-i].ID || !s.Timestamp.Equal(got[len(got)-1-i].Timestamp) {
			t.Errorf("latest[%d] = (%d, %v), want (%d, %v)", i, s.ID, s.Timestamp,
				got[len(got)-1-i].ID, got[len(got)-1-i].Timestamp)
		}
	}
}

func TestInsertSample_StampOrderSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stamps.duckdb")
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.InsertSample(context.Background(), sample("h", 1), func() time.Time { return later }); err != nil {
		t.Fatalf("InsertSample: %v", err)
	}
	store.Close()

	reopened, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	stored, err := reopened.InsertSample(context.Background(), sample("h", 2), func() time.Time {
		return later.Add(-time.Hour)
	})
	if err != nil {
		t.Fatalf("InsertSample after reopen: %v", err)
	}
	if !stored.Timestamp.Equal(later) {
		t.Errorf("ts after reopen = %v, want %v", stored.Timestamp, later)
	}
}
