package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tinytelemetry/hostmon/internal/model"
)

// Sender delivers one reading to the ingest service.
type Sender interface {
	Send(ctx context.Context, r model.Reading) error
}

// DeliveryError reports a reading that did not reach the ingest service.
// It is transient: the agent drops the reading and tries again next cycle.
type DeliveryError struct {
	StatusCode int    // 0 when no response was received
	Body       string // first bytes of a non-2xx response
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ingest responded %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("ingest unreachable: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// HTTPSender posts readings as JSON with the shared-secret header.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSender returns a sender whose requests are bounded by timeout.
func NewHTTPSender(endpoint, apiKey string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = model.DefaultSendTimeout
	}
	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send implements Sender. Every failure is a *DeliveryError.
func (s *HTTPSender) Send(ctx context.Context, r model.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("encode reading: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(model.APIKeyHeader, s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
