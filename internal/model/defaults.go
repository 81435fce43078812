package model

import "time"

// Shared defaults used by both the ingest service and the collector agent.
const (
	DefaultAPIKey       = "dev-key-change-me"
	DefaultAPIPort      = 8000
	DefaultIngestPath   = "/ingest"
	DefaultInterval     = 10 * time.Second
	DefaultPingTarget   = "1.1.1.1"
	DefaultLatestLimit  = 50
	MaxLatestLimit      = 500
	MaxHostLength       = 128
	APIKeyHeader        = "X-API-Key"
	DefaultSendTimeout  = 5 * time.Second
	DefaultPingTimeout  = time.Second
	DefaultCPUWindow    = time.Second
	DefaultDiskPath     = "/"
	DefaultQueryTimeout = 30 * time.Second
)
