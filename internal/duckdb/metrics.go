package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/hostmon/internal/model"
)

// InsertSample appends one sample in a single auto-committed statement and
// returns it with the identity assigned by the metrics_id_seq sequence.
//
// When stamp is non-nil it is called while the write lock is held and its
// result becomes the sample's timestamp, so identity order and timestamp
// order agree. A stamp earlier than the newest stored one (wall clock
// stepped back) is raised to it.
func (s *Store) InsertSample(ctx context.Context, sample MetricSample, stamp func() time.Time) (MetricSample, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if stamp != nil {
		sample.Timestamp = stamp().UTC()
		if sample.Timestamp.Before(s.lastStamp) {
			sample.Timestamp = s.lastStamp
		}
	}
	sample.Timestamp = sample.Timestamp.UTC().Truncate(time.Microsecond)

	var ping any
	if sample.PingMs != nil {
		ping = *sample.PingMs
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO metrics (host, ts, cpu_pct, mem_pct, disk_pct, rx_kbps, tx_kbps, ping_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sample.Host, sample.Timestamp, sample.CPUPct, sample.MemPct,
		sample.DiskPct, sample.RxKbps, sample.TxKbps, ping,
	).Scan(&sample.ID)
	if err != nil {
		return MetricSample{}, fmt.Errorf("insert sample: %w", err)
	}
	if sample.Timestamp.After(s.lastStamp) {
		s.lastStamp = sample.Timestamp
	}
	return sample, nil
}

// LatestSamples returns up to q.Limit samples ordered newest first.
// The limit is clamped into [1, model.MaxLatestLimit].
func (s *Store) LatestSamples(ctx context.Context, q LatestQuery) ([]MetricSample, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where string
		args  []any
	)
	if host := strings.TrimSpace(q.Host); host != "" {
		where = "WHERE host = ?"
		args = append(args, host)
	}
	args = append(args, model.ClampLimit(q.Limit))

	query := fmt.Sprintf(`
		SELECT id, host, ts, cpu_pct, mem_pct, disk_pct, rx_kbps, tx_kbps, ping_ms
		FROM metrics %s
		ORDER BY id DESC
		LIMIT ?`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest samples: %w", err)
	}
	defer rows.Close()

	results := make([]MetricSample, 0)
	for rows.Next() {
		var (
			ms   MetricSample
			ping sql.NullFloat64
		)
		if err := rows.Scan(&ms.ID, &ms.Host, &ms.Timestamp, &ms.CPUPct, &ms.MemPct,
			&ms.DiskPct, &ms.RxKbps, &ms.TxKbps, &ping); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		ms.Timestamp = ms.Timestamp.UTC()
		if ping.Valid {
			v := ping.Float64
			ms.PingMs = &v
		}
		results = append(results, ms)
	}
	return results, rows.Err()
}

// SampleCount returns the number of persisted samples.
func (s *Store) SampleCount(ctx context.Context) (int64, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM metrics").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
