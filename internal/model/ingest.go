package model

import "time"

// IngestAck is returned to the agent when a reading has been persisted.
type IngestAck struct {
	Ingested  bool      `json:"ingested"`
	Timestamp time.Time `json:"ts"`
}
