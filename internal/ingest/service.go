// Package ingest authenticates, validates and persists host readings and
// serves the most recent samples.
package ingest

import (
	"context"
	"time"

	"github.com/tinytelemetry/hostmon/internal/auth"
	"github.com/tinytelemetry/hostmon/internal/model"
)

// Service is the ingest-side business logic shared by the HTTP handlers.
// It holds no per-request state.
type Service struct {
	store    model.SampleStore
	verifier auth.Verifier
	now      func() time.Time
}

// NewService wires a store and a credential verifier.
func NewService(store model.SampleStore, verifier auth.Verifier) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		now:      time.Now,
	}
}

// Authorize reports ErrUnauthorized unless credential is accepted.
func (s *Service) Authorize(credential string) error {
	if s.verifier == nil || !s.verifier.Verify(credential) {
		return ErrUnauthorized
	}
	return nil
}

// Ingest authorizes, validates and persists one reading. Nothing is written
// unless every check passes.
func (s *Service) Ingest(ctx context.Context, credential string, r model.Reading) (model.IngestAck, error) {
	if err := s.Authorize(credential); err != nil {
		return model.IngestAck{}, err
	}
	if err := Validate(r); err != nil {
		return model.IngestAck{}, err
	}

	stored, err := s.store.InsertSample(ctx, model.NewSample(r, time.Time{}), func() time.Time {
		return stampTime(s.now())
	})
	if err != nil {
		return model.IngestAck{}, err
	}
	return model.IngestAck{Ingested: true, Timestamp: stored.Timestamp}, nil
}

// Latest returns up to limit samples, newest first. Out-of-range limits are
// clamped, never rejected.
func (s *Service) Latest(ctx context.Context, limit int, host string) ([]model.MetricSample, error) {
	return s.store.LatestSamples(ctx, model.LatestQuery{
		Limit: model.ClampLimit(limit),
		Host:  host,
	})
}

// stampTime converts t to UTC at the store's microsecond resolution,
// rounding up so the stamp is never earlier than t.
func stampTime(t time.Time) time.Time {
	t = t.UTC()
	ts := t.Truncate(time.Microsecond)
	if ts.Before(t) {
		ts = ts.Add(time.Microsecond)
	}
	return ts
}
