package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/hostmon/internal/auth"
	"github.com/tinytelemetry/hostmon/internal/backup"
	"github.com/tinytelemetry/hostmon/internal/duckdb"
	"github.com/tinytelemetry/hostmon/internal/httpserver"
	"github.com/tinytelemetry/hostmon/internal/ingest"
	"github.com/tinytelemetry/hostmon/internal/web"
	"golang.org/x/sync/errgroup"
)

const shutdownDeadline = 10 * time.Second

// runServer starts the ingest API and blocks until SIGINT/SIGTERM.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile, os.Stderr)
	defer cleanupLogger()

	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	backupManager, err := backup.NewManager(store, backup.Config{
		Enabled:        cfg.BackupEnabled,
		Interval:       cfg.BackupInterval,
		LocalDir:       cfg.BackupLocalDir,
		KeepLast:       cfg.BackupKeepLast,
		BucketURL:      cfg.BackupBucketURL,
		S3Endpoint:     cfg.BackupS3Endpoint,
		S3Region:       cfg.BackupS3Region,
		S3AccessKey:    cfg.BackupS3AccessKey,
		S3SecretKey:    cfg.BackupS3SecretKey,
		S3SessionToken: cfg.BackupS3SessionToken,
		S3UseSSL:       cfg.BackupS3UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize backups: %w", err)
	}

	assets, err := web.Assets(cfg.StaticDir)
	if err != nil {
		return fmt.Errorf("failed to load dashboard assets: %w", err)
	}

	svc := ingest.NewService(store, auth.NewSharedSecret(cfg.APIKey))
	apiServer := httpserver.NewServer(cfg.APIAddr, svc, assets)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	if cfg.usesDefaultKey() {
		log.Printf("server: WARNING api-key is the built-in development key; set HOSTMON_API_KEY")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(shutdownDeadline)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(os.Stdout, cfg)

	g, gctx := errgroup.WithContext(ctx)

	if backupManager != nil {
		g.Go(func() error {
			return backupManager.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("server: errgroup exited with error: %v", err)
	}
	return nil
}

// configureRuntimeLogger points the standard logger at logFile (append mode)
// or at fallback when no file is configured or it cannot be opened.
func configureRuntimeLogger(logFile string, fallback io.Writer) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(fallback)

	if logFile == "" {
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		log.Printf("server: log-file %s unusable, logging to stderr: %v", logFile, err)
		return func() {}
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("server: log-file %s unusable, logging to stderr: %v", logFile, err)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		log.SetOutput(fallback)
		_ = f.Close()
	}
}

func printStartupBanner(w io.Writer, cfg appConfig) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")
	warn := red.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("hostmon")+" "+dim.Render("v"+version))
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	if cfg.usesDefaultKey() {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", warn, red.Render("development default")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  API Key        %s", check, dim.Render("configured")))
	}
	if cfg.StaticDir != "" {
		lines = append(lines, fmt.Sprintf("    %s  Dashboard      %s", check, dim.Render(shortenPath(cfg.StaticDir))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Dashboard      %s", check, dim.Render("embedded")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	if cfg.DBPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Storage        %s", dot, dim.Render("in-memory")))
	}
	if cfg.BackupEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", check, dim.Render(shortenPath(cfg.BackupLocalDir))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Snapshots      %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
