package model

import (
	"context"
	"time"
)

// LatestQuery selects the most recently inserted samples.
type LatestQuery struct {
	Limit int
	Host  string // empty = all hosts
}

// SampleWriter persists accepted samples. Implementations assign the
// identity and return the stored sample. A non-nil stamp is called while
// writes are serialized and supplies the timestamp, keeping identity order
// and timestamp order in step.
type SampleWriter interface {
	InsertSample(ctx context.Context, sample MetricSample, stamp func() time.Time) (MetricSample, error)
}

// SampleReader serves recent-sample queries, newest first.
type SampleReader interface {
	LatestSamples(ctx context.Context, q LatestQuery) ([]MetricSample, error)
}

// SampleStore is the full store contract used by the ingest service.
type SampleStore interface {
	SampleWriter
	SampleReader
}

// ClampLimit forces a requested row count into [1, MaxLatestLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLatestLimit {
		return MaxLatestLimit
	}
	return limit
}
