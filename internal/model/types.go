package model

import "time"

// Reading is one host observation as produced by the collector agent.
// It is the JSON body of POST /ingest. PingMs is nil when the latency
// probe failed.
//
// The binding tags declare each field's domain; "finite" is registered by
// the ingest validator and rejects NaN and infinities.
type Reading struct {
	Host    string   `json:"host" binding:"required,max=128"`
	CPUPct  float64  `json:"cpu_pct" binding:"finite,gte=0,lte=100"`
	MemPct  float64  `json:"mem_pct" binding:"finite,gte=0,lte=100"`
	DiskPct float64  `json:"disk_pct" binding:"finite,gte=0,lte=100"`
	RxKbps  float64  `json:"rx_kbps" binding:"finite,gte=0"`
	TxKbps  float64  `json:"tx_kbps" binding:"finite,gte=0"`
	PingMs  *float64 `json:"ping_ms" binding:"omitnil,finite,gte=0"`
}

// MetricSample is a Reading that has been accepted and persisted.
// ID and Timestamp are assigned by the ingest service and never change.
type MetricSample struct {
	ID        int64     `json:"-"`
	Host      string    `json:"host"`
	Timestamp time.Time `json:"ts"`
	CPUPct    float64   `json:"cpu_pct"`
	MemPct    float64   `json:"mem_pct"`
	DiskPct   float64   `json:"disk_pct"`
	RxKbps    float64   `json:"rx_kbps"`
	TxKbps    float64   `json:"tx_kbps"`
	PingMs    *float64  `json:"ping_ms"`
}

// NewSample stamps a reading with its ingest time.
func NewSample(r Reading, ts time.Time) MetricSample {
	return MetricSample{
		Host:      r.Host,
		Timestamp: ts,
		CPUPct:    r.CPUPct,
		MemPct:    r.MemPct,
		DiskPct:   r.DiskPct,
		RxKbps:    r.RxKbps,
		TxKbps:    r.TxKbps,
		PingMs:    r.PingMs,
	}
}
