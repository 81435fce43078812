package backup

import (
	"context"
	"time"
)

// Config controls periodic snapshots of the metrics database.
type Config struct {
	Enabled   bool
	Interval  time.Duration
	LocalDir  string
	KeepLast  int
	BucketURL string

	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3SessionToken string
	S3UseSSL       bool
}

// Snapshotter is implemented by the DuckDB store. SampleCount lets the
// manager skip rounds in which nothing was ingested; the metrics table is
// append-only, so an unchanged count means unchanged contents.
type Snapshotter interface {
	DBPath() string
	SampleCount(ctx context.Context) (int64, error)
	SnapshotTo(dstPath string) error
}

// Uploader ships one snapshot file off the host.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) error
}
