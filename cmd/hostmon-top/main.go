package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/tinytelemetry/hostmon/internal/apiclient"
	"github.com/tinytelemetry/hostmon/internal/model"
	"github.com/tinytelemetry/hostmon/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

const (
	defaultServer          = "http://127.0.0.1:8000"
	defaultRefreshInterval = model.DefaultInterval
	defaultRequestTimeout  = model.DefaultSendTimeout
)

// topConfig holds only dashboard-relevant configuration.
type topConfig struct {
	Server          string        `mapstructure:"server"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	Limit           int           `mapstructure:"limit"`
	RequestTimeout  time.Duration `mapstructure:"request-timeout"`
}

func main() {
	var configPath string
	var server string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/hostmon/top.yml)")
	flag.StringVar(&server, "server", "", "override ingest service base URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("hostmon-top - Terminal Dashboard\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadTopConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if server != "" {
		cfg.Server = server
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg topConfig) error {
	client, err := apiclient.New(cfg.Server, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	err = client.Health(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("cannot reach hostmon service at %s: %w\nIs the service running? Start it with: hostmon", client.BaseURL(), err)
	}

	m := tui.NewModel(client, client.BaseURL(), cfg.RefreshInterval, cfg.Limit)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func loadTopConfig(configPath string) (topConfig, error) {
	var cfg topConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HOSTMON_TOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("server", defaultServer)
	v.SetDefault("refresh-interval", defaultRefreshInterval)
	v.SetDefault("limit", model.MaxLatestLimit)
	v.SetDefault("request-timeout", defaultRequestTimeout)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "hostmon", "top.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	cfg.Limit = model.ClampLimit(cfg.Limit)

	return cfg, nil
}
