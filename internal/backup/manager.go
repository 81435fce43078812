// Package backup takes periodic file snapshots of the metrics database and
// optionally uploads them to S3.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	defaultInterval = 6 * time.Hour
	defaultKeepLast = 24

	snapshotPrefix = "hostmon-"
	snapshotSuffix = ".duckdb"
)

// Manager runs snapshot rounds on a fixed interval.
type Manager struct {
	store    Snapshotter
	cfg      Config
	uploader Uploader
	now      func() time.Time

	// samples is the row count captured by the last completed round.
	samples     int64
	haveSamples bool
}

// NewManager validates cfg and returns a manager, or nil when backups are
// disabled. The caller drives it with Run.
func NewManager(store Snapshotter, cfg Config) (*Manager, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if store == nil {
		return nil, errors.New("backup: nil snapshotter")
	}
	if strings.TrimSpace(store.DBPath()) == "" {
		return nil, errors.New("backup: db-path is empty (in-memory store)")
	}
	if strings.TrimSpace(cfg.LocalDir) == "" {
		return nil, errors.New("backup: local-dir is required when backup is enabled")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.KeepLast <= 0 {
		cfg.KeepLast = defaultKeepLast
	}
	if err := os.MkdirAll(cfg.LocalDir, 0755); err != nil {
		return nil, fmt.Errorf("backup: create local-dir: %w", err)
	}

	m := &Manager{store: store, cfg: cfg, now: time.Now}
	if strings.TrimSpace(cfg.BucketURL) != "" {
		u, err := NewS3Uploader(S3Config{
			BucketURL:    cfg.BucketURL,
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			SessionToken: cfg.S3SessionToken,
			UseSSL:       cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("backup: init s3 uploader: %w", err)
		}
		m.uploader = u
	}
	return m, nil
}

// Run takes a snapshot immediately and then once per interval until ctx is
// done. Failed rounds are logged; Run only returns when ctx ends.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.RunOnce(ctx); err != nil {
		log.Printf("backup: startup snapshot failed: %v", err)
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				log.Printf("backup: periodic snapshot failed: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// RunOnce writes one snapshot, uploads it when a bucket is configured, and
// prunes local copies beyond KeepLast. A round is skipped when no sample
// was ingested since the last completed one.
func (m *Manager) RunOnce(ctx context.Context) error {
	count, err := m.store.SampleCount(ctx)
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}
	if m.haveSamples && count == m.samples {
		log.Printf("backup: no new samples since last snapshot (%d stored), skipping", count)
		return nil
	}

	now := time.Now
	if m.now != nil {
		now = m.now
	}
	name := snapshotPrefix + now().UTC().Format("20060102-150405.000") + snapshotSuffix
	localPath := filepath.Join(m.cfg.LocalDir, name)

	if err := m.store.SnapshotTo(localPath); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Printf("backup: created snapshot %s (%d samples)", localPath, count)

	if m.uploader != nil {
		if err := m.uploader.UploadFile(ctx, localPath); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		log.Printf("backup: uploaded snapshot %s", name)
	}

	if err := pruneSnapshots(m.cfg.LocalDir, m.cfg.KeepLast); err != nil {
		return fmt.Errorf("prune local snapshots: %w", err)
	}
	m.samples, m.haveSamples = count, true
	return nil
}

func pruneSnapshots(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}

	// Names embed a UTC timestamp, so reverse lexical order is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, old := range matches[keep:] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
