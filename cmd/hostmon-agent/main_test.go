package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/hostmon/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Endpoint != "http://127.0.0.1:8000/ingest" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.Interval != 10*time.Second || cfg.CPUWindow != time.Second {
		t.Errorf("interval/cpu-window = %v/%v", cfg.Interval, cfg.CPUWindow)
	}
	if cfg.SendTimeout != 5*time.Second || cfg.PingTimeout != time.Second {
		t.Errorf("send/ping timeout = %v/%v", cfg.SendTimeout, cfg.PingTimeout)
	}
	if cfg.PingTarget != "1.1.1.1" || cfg.DiskPath != "/" {
		t.Errorf("ping-target/disk-path = %q/%q", cfg.PingTarget, cfg.DiskPath)
	}
	if cfg.APIKey != model.DefaultAPIKey {
		t.Errorf("api-key = %q", cfg.APIKey)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOSTMON_AGENT_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "agent.yml")
	body := "endpoint: https://metrics.example.net/ingest\ninterval: 30s\nhost: db-2\napi-key: file-key\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Endpoint != "https://metrics.example.net/ingest" || cfg.Interval != 30*time.Second || cfg.Host != "db-2" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("api-key = %q, want env to win", cfg.APIKey)
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad scheme", map[string]string{"HOSTMON_AGENT_ENDPOINT": "ftp://x/ingest"}, "invalid endpoint"},
		{"no host", map[string]string{"HOSTMON_AGENT_ENDPOINT": "http:///ingest"}, "invalid endpoint"},
		{"empty key", map[string]string{"HOSTMON_AGENT_API_KEY": " "}, "api-key"},
		{"zero interval", map[string]string{"HOSTMON_AGENT_INTERVAL": "0s"}, "invalid interval"},
		{"window too long", map[string]string{"HOSTMON_AGENT_INTERVAL": "1s", "HOSTMON_AGENT_CPU_WINDOW": "2s"}, "cpu-window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestResolveHost(t *testing.T) {
	statsName := func(name string, err error) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return name, err }
	}
	osName := func(name string, err error) func() (string, error) {
		return func() (string, error) { return name, err }
	}
	fail := errors.New("unavailable")
	ctx := context.Background()

	tests := []struct {
		name       string
		configured string
		stats      func(context.Context) (string, error)
		os         func() (string, error)
		want       string
	}{
		{"configured wins", " web-1 ", statsName("stats", nil), osName("os", nil), "web-1"},
		{"stats fallback", "", statsName("stats", nil), osName("os", nil), "stats"},
		{"os fallback", "", statsName("", fail), osName("os", nil), "os"},
		{"nothing available", "", statsName("", fail), osName("", fail), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveHost(ctx, tt.configured, tt.stats, tt.os); got != tt.want {
				t.Errorf("resolveHost = %q, want %q", got, tt.want)
			}
		})
	}

	long := strings.Repeat("é", model.MaxHostLength+10)
	got := resolveHost(ctx, long, statsName("", fail), osName("", fail))
	if n := len([]rune(got)); n != model.MaxHostLength {
		t.Errorf("truncated host has %d runes, want %d", n, model.MaxHostLength)
	}
}
