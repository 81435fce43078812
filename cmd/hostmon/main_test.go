package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIPort != defaultAPIPort {
		t.Errorf("api-port = %d, want %d", cfg.APIPort, defaultAPIPort)
	}
	if cfg.APIAddr != "127.0.0.1:8000" {
		t.Errorf("api-addr = %q, want 127.0.0.1:8000", cfg.APIAddr)
	}
	if !cfg.usesDefaultKey() {
		t.Errorf("api-key = %q, want development default", cfg.APIKey)
	}
	if cfg.QueryTimeout != defaultQueryTimeout {
		t.Errorf("query-timeout = %v, want %v", cfg.QueryTimeout, defaultQueryTimeout)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join("hostmon", "metrics.duckdb")) {
		t.Errorf("db-path = %q", cfg.DBPath)
	}
	if cfg.BackupEnabled {
		t.Error("backups enabled by default")
	}
	if cfg.ConfigPath != "" {
		t.Errorf("config path = %q, want empty for a missing file", cfg.ConfigPath)
	}
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api-port: 9100
api-key: s3cret
db-path: ~/data/m.duckdb
query-timeout: 5s
backup-enabled: true
backup-keep-last: 3
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:9100" {
		t.Errorf("api-addr = %q", cfg.APIAddr)
	}
	if cfg.APIKey != "s3cret" || cfg.usesDefaultKey() {
		t.Errorf("api-key = %q", cfg.APIKey)
	}
	if cfg.DBPath != filepath.Join(home, "data", "m.duckdb") {
		t.Errorf("db-path = %q, want ~ expanded", cfg.DBPath)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("query-timeout = %v", cfg.QueryTimeout)
	}
	if !cfg.BackupEnabled || cfg.BackupKeepLast != 3 {
		t.Errorf("backup = %v/%d", cfg.BackupEnabled, cfg.BackupKeepLast)
	}
	if cfg.ConfigPath != path {
		t.Errorf("config path = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOSTMON_API_KEY", "from-env")
	t.Setenv("HOSTMON_API_ADDR", "0.0.0.0:8000")

	cfg, err := loadConfig(writeConfig(t, "api-key: from-file\n"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("api-key = %q, want env to win", cfg.APIKey)
	}
	if cfg.APIAddr != "0.0.0.0:8000" {
		t.Errorf("api-addr = %q", cfg.APIAddr)
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero port", "api-port: 0\n", "invalid api-port"},
		{"port too large", "api-port: 70000\n", "invalid api-port"},
		{"empty key", "api-key: \"  \"\n", "api-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			_, err := loadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPrintStartupBanner(t *testing.T) {
	var buf bytes.Buffer
	printStartupBanner(&buf, appConfig{APIAddr: "127.0.0.1:8000", APIKey: defaultAPIKey})

	out := buf.String()
	for _, want := range []string{"127.0.0.1:8000", "development default", "in-memory", "disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestDump_RedactsSecrets(t *testing.T) {
	cfg := appConfig{
		APIPort:           8000,
		APIKey:            "real-secret",
		QueryTimeout:      30 * time.Second,
		BackupS3SecretKey: "aws-secret",
		ConfigPath:        "/etc/hostmon.yml",
	}
	out, err := cfg.dump()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	s := string(out)
	for _, leaked := range []string{"real-secret", "aws-secret", "/etc/hostmon.yml"} {
		if strings.Contains(s, leaked) {
			t.Errorf("dump leaks %q:\n%s", leaked, s)
		}
	}
	for _, want := range []string{"api-port: 8000", "query-timeout: 30s", "api-key: REDACTED"} {
		if !strings.Contains(s, want) {
			t.Errorf("dump missing %q:\n%s", want, s)
		}
	}

	cfg.APIKey = defaultAPIKey
	out, _ = cfg.dump()
	if !strings.Contains(string(out), defaultAPIKey) {
		t.Error("development key should be shown so it is noticed")
	}
}
