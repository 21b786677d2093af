package settle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
	"github.com/imrishuroy/go-payment-relay/internal/processor"
)

// scriptedClient returns canned results in order; the last one repeats.
// Safe for concurrent use.
type scriptedClient struct {
	name    payments.Processor
	mu      sync.Mutex
	results []processor.Result
	calls   []processor.ChargeRequest
}

func newScriptedClient(name payments.Processor, results ...processor.Result) *scriptedClient {
	return &scriptedClient{name: name, results: results}
}

func (c *scriptedClient) Name() payments.Processor { return c.name }

func (c *scriptedClient) Submit(_ context.Context, req processor.ChargeRequest) processor.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if len(c.results) == 0 {
		return processor.ResultSuccess
	}
	r := c.results[0]
	if len(c.results) > 1 {
		c.results = c.results[1:]
	}
	return r
}

func (c *scriptedClient) ProbeHealth(context.Context) processor.Health {
	return processor.Health{}
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *scriptedClient) setResults(results ...processor.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = results
}

// memLedger is an in-memory Ledger keyed by (processor, correlation id), the
// same idempotency the real backings provide.
type memLedger struct {
	mu       sync.Mutex
	entries  map[string]payments.LedgerEntry
	failures int // fail the next N Record calls
}

func newMemLedger() *memLedger {
	return &memLedger{entries: map[string]payments.LedgerEntry{}}
}

func (m *memLedger) Record(_ context.Context, e payments.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("ledger unavailable")
	}
	m.entries[string(e.Processor)+"|"+e.CorrelationID.String()] = e
	return nil
}

func (m *memLedger) Summarize(_ context.Context, from, to *time.Time) (payments.SummaryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := payments.NewSummaryResponse()
	for _, e := range m.entries {
		if from != nil && e.RequestedAt.Before(*from) {
			continue
		}
		if to != nil && e.RequestedAt.After(*to) {
			continue
		}
		resp.Add(e)
	}
	return resp, nil
}

func (m *memLedger) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]payments.LedgerEntry{}
	return nil
}

func (m *memLedger) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memLedger) get(key string) (payments.LedgerEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// memPending is an in-memory FIFO PendingQueue.
type memPending struct {
	mu    sync.Mutex
	items []payments.PendingPayment
}

func (m *memPending) Push(_ context.Context, p payments.PendingPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, p)
	return nil
}

func (m *memPending) PopBatch(_ context.Context, max int) ([]payments.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, nil
	}
	if max > len(m.items) {
		max = len(m.items)
	}
	batch := make([]payments.PendingPayment, max)
	copy(batch, m.items[:max])
	m.items = m.items[max:]
	return batch, nil
}

func (m *memPending) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

func (m *memPending) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memPending) first() (payments.PendingPayment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return payments.PendingPayment{}, false
	}
	return m.items[0], true
}
