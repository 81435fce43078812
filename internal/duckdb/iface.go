package duckdb

import "github.com/tinytelemetry/hostmon/internal/model"

var _ model.SampleStore = (*Store)(nil)
