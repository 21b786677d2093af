package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// Result classifies the outcome of one submit call against a processor.
type Result int

const (
	ResultSuccess Result = iota
	// ResultDuplicate means the processor already holds this correlation id
	// (HTTP 422). For the ledger it counts as a successful settlement; the
	// upstream idempotency contract is the de-duplication mechanism.
	ResultDuplicate
	ResultUpstreamFailure
	ResultTimeout
	ResultOther
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultDuplicate:
		return "duplicate"
	case ResultUpstreamFailure:
		return "upstream_failure"
	case ResultTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Settled reports whether the result counts as a settlement for the ledger.
func (r Result) Settled() bool {
	return r == ResultSuccess || r == ResultDuplicate
}

// ChargeRequest is the body of POST /payments on a processor. RequestedAt is
// the original admission timestamp, not the time of this (possibly retried)
// call.
type ChargeRequest struct {
	CorrelationID uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   time.Time       `json:"requestedAt"`
}

// Health is the processor's self-reported health.
type Health struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

// Client is the seam the settlement path and health monitor depend on.
type Client interface {
	Name() payments.Processor
	Submit(ctx context.Context, req ChargeRequest) Result
	ProbeHealth(ctx context.Context) Health
}

// HTTPClient talks to one upstream processor over its REST contract.
type HTTPClient struct {
	name         payments.Processor
	baseURL      string
	client       *http.Client
	healthClient *http.Client
}

// NewHTTPClient returns a client for the processor at baseURL. Submit calls
// are capped at timeout; connections are pooled and reused so per-call setup
// cost stays out of the latency budget.
func NewHTTPClient(name payments.Processor, baseURL string, timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 256,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPClient{
		name:    name,
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		healthClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) Name() payments.Processor { return c.name }

// Submit posts the charge and classifies the response. Transport-level
// failures (connect/read errors, deadline exceeded) map to ResultTimeout:
// the payment may have reached the processor before the failure, so retries
// must go back through the same processor's idempotency check first.
func (c *HTTPClient) Submit(ctx context.Context, req ChargeRequest) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return ResultOther
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return ResultOther
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return ResultTimeout
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return ResultSuccess
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return ResultDuplicate
	case resp.StatusCode >= 500:
		return ResultUpstreamFailure
	default:
		return ResultOther
	}
}

// ProbeHealth never returns an error: any local failure is reported as a
// failing processor.
func (c *HTTPClient) ProbeHealth(ctx context.Context) Health {
	unhealthy := Health{Failing: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/service-health", nil)
	if err != nil {
		return unhealthy
	}

	resp, err := c.healthClient.Do(req)
	if err != nil {
		return unhealthy
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unhealthy
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return unhealthy
	}
	return health
}
