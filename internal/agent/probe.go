package agent

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober measures round-trip latency to a target. ok is false when the probe
// failed for any reason; failure is never reported as an error.
type Prober interface {
	Probe(ctx context.Context, target string) (ms float64, ok bool)
}

// PingProber sends a single ICMP echo using the system ping binary.
type PingProber struct {
	Timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewPingProber returns a prober that waits at most timeout for a reply.
func NewPingProber(timeout time.Duration) *PingProber {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &PingProber{
		Timeout: timeout,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Probe implements Prober.
func (p *PingProber) Probe(ctx context.Context, target string) (float64, bool) {
	if strings.TrimSpace(target) == "" {
		return 0, false
	}
	wait := int(math.Ceil(p.Timeout.Seconds()))
	if wait < 1 {
		wait = 1
	}
	// ping enforces its own reply deadline; the context only guards
	// against a hung process.
	ctx, cancel := context.WithTimeout(ctx, p.Timeout+time.Second)
	defer cancel()

	out, err := p.run(ctx, "ping", "-c", "1", "-W", strconv.Itoa(wait), target)
	if err != nil {
		return 0, false
	}
	return parsePingRTT(string(out))
}

// parsePingRTT extracts the value of the first "time=<ms>" token.
func parsePingRTT(out string) (float64, bool) {
	for _, field := range strings.Fields(out) {
		raw, found := strings.CutPrefix(field, "time=")
		if !found {
			continue
		}
		raw = strings.TrimSuffix(raw, "ms")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
