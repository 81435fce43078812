package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/hostmon/internal/agent"
	"github.com/tinytelemetry/hostmon/internal/hoststats"
	"github.com/tinytelemetry/hostmon/internal/model"
)

// Build variables - set by ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var once bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/hostmon/agent.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&once, "once", false, "collect and send a single reading, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("hostmon-agent %s (%s)\n", version, commit)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, once); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg agentConfig, once bool) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log-file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats := hoststats.NewSystem()
	host := resolveHost(ctx, cfg.Host, stats.Hostname, os.Hostname)

	a := agent.New(agent.Config{
		Host:       host,
		Interval:   cfg.Interval,
		CPUWindow:  cfg.CPUWindow,
		DiskPath:   cfg.DiskPath,
		PingTarget: cfg.PingTarget,
	}, stats, agent.NewPingProber(cfg.PingTimeout), agent.NewHTTPSender(cfg.Endpoint, cfg.APIKey, cfg.SendTimeout))

	if once {
		_, err := a.Cycle(ctx, nil)
		return err
	}

	log.Printf("agent: reporting host=%s to %s every %s", host, cfg.Endpoint, cfg.Interval)
	err := a.Run(ctx)
	log.Printf("agent: stopped")
	return err
}

func loadConfig(configPath string) (agentConfig, error) {
	var cfg agentConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HOSTMON_AGENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("endpoint", defaultEndpoint)
	v.SetDefault("api-key", model.DefaultAPIKey)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("ping-target", defaultPingTarget)
	v.SetDefault("ping-timeout", defaultPingTimeout)
	v.SetDefault("send-timeout", defaultSendTimeout)
	v.SetDefault("cpu-window", defaultCPUWindow)
	v.SetDefault("disk-path", defaultDiskPath)
	v.SetDefault("host", "")
	v.SetDefault("log-file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "hostmon", "agent.yml"))
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
	cfg.ConfigPath = v.ConfigFileUsed()

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, fmt.Errorf("invalid endpoint: %q", cfg.Endpoint)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return cfg, errors.New("api-key must not be empty")
	}
	if cfg.Interval <= 0 {
		return cfg, fmt.Errorf("invalid interval: %s", cfg.Interval)
	}
	if cfg.CPUWindow >= cfg.Interval {
		return cfg, fmt.Errorf("cpu-window %s must be shorter than interval %s", cfg.CPUWindow, cfg.Interval)
	}
	if strings.HasPrefix(cfg.LogFile, "~/") {
		cfg.LogFile = filepath.Join(home, cfg.LogFile[2:])
	}

	return cfg, nil
}

// resolveHost picks the reported host id: the configured value, else the
// stats provider's hostname, else the OS hostname. The result is cut to the
// length the ingest service accepts.
func resolveHost(ctx context.Context, configured string, fromStats func(context.Context) (string, error), fromOS func() (string, error)) string {
	host := strings.TrimSpace(configured)
	if host == "" {
		if name, err := fromStats(ctx); err == nil {
			host = strings.TrimSpace(name)
		}
	}
	if host == "" {
		if name, err := fromOS(); err == nil {
			host = strings.TrimSpace(name)
		}
	}
	if host == "" {
		host = "unknown"
	}
	if r := []rune(host); len(r) > model.MaxHostLength {
		log.Printf("agent: host %q truncated to %d characters", host, model.MaxHostLength)
		host = string(r[:model.MaxHostLength])
	}
	return host
}
