// Package agent samples local host metrics on a fixed interval and pushes
// each reading to the ingest service.
package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/hostmon/internal/hoststats"
	"github.com/tinytelemetry/hostmon/internal/model"
)

// Config holds the agent's sampling parameters.
type Config struct {
	Host       string
	Interval   time.Duration
	CPUWindow  time.Duration
	DiskPath   string
	PingTarget string
}

// Agent runs the sample-and-send loop. It is not safe for concurrent use.
type Agent struct {
	cfg    Config
	stats  hoststats.Reader
	prober Prober
	sender Sender
}

// New wires an agent. Zero config values fall back to the shared defaults.
func New(cfg Config, stats hoststats.Reader, prober Prober, sender Sender) *Agent {
	if cfg.Interval <= 0 {
		cfg.Interval = model.DefaultInterval
	}
	if cfg.CPUWindow <= 0 {
		cfg.CPUWindow = model.DefaultCPUWindow
	}
	if cfg.DiskPath == "" {
		cfg.DiskPath = model.DefaultDiskPath
	}
	return &Agent{cfg: cfg, stats: stats, prober: prober, sender: sender}
}

// Sample takes one reading. prev is the counter reading from the previous
// successful sample, or nil on the first cycle; the returned counters must
// be passed as prev on the next call.
func (a *Agent) Sample(ctx context.Context, prev *hoststats.Counters) (model.Reading, hoststats.Counters, error) {
	cpuPct, err := a.stats.CPUPercent(ctx, a.cfg.CPUWindow)
	if err != nil {
		return model.Reading{}, hoststats.Counters{}, err
	}
	memPct, err := a.stats.MemPercent(ctx)
	if err != nil {
		return model.Reading{}, hoststats.Counters{}, err
	}
	diskPct, err := a.stats.DiskPercent(ctx, a.cfg.DiskPath)
	if err != nil {
		return model.Reading{}, hoststats.Counters{}, err
	}
	cur, err := a.stats.NetCounters(ctx)
	if err != nil {
		return model.Reading{}, hoststats.Counters{}, err
	}
	rx, tx := Rates(prev, cur)

	r := model.Reading{
		Host:    a.cfg.Host,
		CPUPct:  cpuPct,
		MemPct:  memPct,
		DiskPct: diskPct,
		RxKbps:  rx,
		TxKbps:  tx,
	}
	if a.prober != nil {
		if ms, ok := a.prober.Probe(ctx, a.cfg.PingTarget); ok {
			r.PingMs = &ms
		}
	}
	return r, cur, nil
}

// Cycle samples once and sends the result. It returns the counters to carry
// into the next cycle (prev unchanged if sampling failed) and the first
// error encountered.
func (a *Agent) Cycle(ctx context.Context, prev *hoststats.Counters) (*hoststats.Counters, error) {
	r, cur, err := a.Sample(ctx, prev)
	if err != nil {
		return prev, fmt.Errorf("sample: %w", err)
	}
	if err := a.sender.Send(ctx, r); err != nil {
		return &cur, err
	}
	log.Printf("agent: sent host=%s cpu=%.1f mem=%.1f disk=%.1f rx=%.1f tx=%.1f ping=%s",
		r.Host, r.CPUPct, r.MemPct, r.DiskPct, r.RxKbps, r.TxKbps, formatPing(r.PingMs))
	return &cur, nil
}

// Run cycles until ctx is cancelled. Cycles start every Interval regardless
// of how long the previous one took; a cycle that overruns delays the next
// start rather than queueing extra cycles.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	var prev *hoststats.Counters
	for {
		next, err := a.Cycle(ctx, prev)
		if err != nil && ctx.Err() == nil {
			log.Printf("agent: cycle failed: %v", err)
		}
		prev = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func formatPing(ms *float64) string {
	if ms == nil {
		return "none"
	}
	return fmt.Sprintf("%.2fms", *ms)
}
