// Package hoststats reads local host utilization through gopsutil.
package hoststats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Counters is one reading of the cumulative network byte counters,
// summed over all interfaces.
type Counters struct {
	RxBytes uint64
	TxBytes uint64
	At      time.Time
}

// Reader is the system-stats provider used by the collector agent.
type Reader interface {
	// CPUPercent blocks for window and returns overall utilization.
	CPUPercent(ctx context.Context, window time.Duration) (float64, error)
	MemPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context, path string) (float64, error)
	NetCounters(ctx context.Context) (Counters, error)
	Hostname(ctx context.Context) (string, error)
}

// System reads the local machine.
type System struct {
	now func() time.Time
}

// NewSystem returns a Reader backed by gopsutil.
func NewSystem() *System {
	return &System{now: time.Now}
}

var _ Reader = (*System)(nil)

// CPUPercent implements Reader.
func (s *System) CPUPercent(ctx context.Context, window time.Duration) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, errors.New("cpu percent: no data")
	}
	return pct[0], nil
}

// MemPercent implements Reader.
func (s *System) MemPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return vm.UsedPercent, nil
}

// DiskPercent implements Reader.
func (s *System) DiskPercent(ctx context.Context, path string) (float64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return u.UsedPercent, nil
}

// NetCounters implements Reader. The timestamp is taken right after the
// counters are read.
func (s *System) NetCounters(ctx context.Context) (Counters, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return Counters{}, fmt.Errorf("net io counters: %w", err)
	}
	if len(stats) == 0 {
		return Counters{}, errors.New("net io counters: no data")
	}
	return Counters{
		RxBytes: stats[0].BytesRecv,
		TxBytes: stats[0].BytesSent,
		At:      s.now(),
	}, nil
}

// Hostname implements Reader.
func (s *System) Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("host info: %w", err)
	}
	return info.Hostname, nil
}
