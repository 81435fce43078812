package duckdb

import "github.com/tinytelemetry/hostmon/internal/model"

// Type aliases re-export model types so store method signatures read
// naturally from callers that only import duckdb.
type MetricSample = model.MetricSample
type LatestQuery = model.LatestQuery
