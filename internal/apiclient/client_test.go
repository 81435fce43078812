package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/hostmon/internal/apiclient"
)

func TestLatest_DecodesSamples(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"host":"web-1","ts":"2026-10-16T12:00:01.000002Z","cpu_pct":12.5,"mem_pct":40,"disk_pct":70,"rx_kbps":8,"tx_kbps":4,"ping_ms":null},
			{"host":"web-1","ts":"2026-10-16T12:00:00Z","cpu_pct":10,"mem_pct":40,"disk_pct":70,"rx_kbps":0,"tx_kbps":0,"ping_ms":3.2}
		]`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	samples, err := c.Latest(context.Background(), 2, "web-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if gotQuery != "host=web-1&limit=2" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].PingMs != nil {
		t.Errorf("ping = %v, want nil", *samples[0].PingMs)
	}
	if samples[1].PingMs == nil || *samples[1].PingMs != 3.2 {
		t.Errorf("ping = %v, want 3.2", samples[1].PingMs)
	}
	want := time.Date(2026, 10, 16, 12, 0, 1, 2000, time.UTC)
	if !samples[0].Timestamp.Equal(want) {
		t.Errorf("ts = %v, want %v", samples[0].Timestamp, want)
	}
}

func TestLatest_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"limit must be an integer"}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Latest(context.Background(), 5, "")
	if err == nil || !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "limit must be an integer") {
		t.Fatalf("err = %v", err)
	}
}

func TestHealth(t *testing.T) {
	status := "ok"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"` + status + `"}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	status = "degraded"
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error for non-ok status")
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "ftp://host", "http://"} {
		if _, err := apiclient.New(raw, time.Second); err == nil {
			t.Errorf("New(%q) succeeded, want error", raw)
		}
	}
}
