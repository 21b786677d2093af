package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Summary amounts go on the wire as plain JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Processor identifies one of the two upstream payment processors.
type Processor string

const (
	ProcessorDefault  Processor = "default"
	ProcessorFallback Processor = "fallback"
	// ProcessorNone is only valid as a routing hint, never as a ledger tag.
	ProcessorNone Processor = "none"
)

// Payment is an accepted submission, before its first dispatch.
type Payment struct {
	CorrelationID uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
}

// PendingPayment is a payment awaiting settlement or retry. RequestedAt is
// stamped once at first dispatch and preserved across retries; Hint narrows
// which processor the next attempt should try first.
type PendingPayment struct {
	CorrelationID uuid.UUID       `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   time.Time       `json:"requestedAt"`
	Hint          Processor       `json:"processor"`
}

// LedgerEntry records a payment settled against one specific processor.
type LedgerEntry struct {
	CorrelationID uuid.UUID
	Amount        decimal.Decimal
	RequestedAt   time.Time
	Processor     Processor
}

// Summary aggregates settled payments for one processor over a time range.
type Summary struct {
	TotalRequests int             `json:"totalRequests"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// SummaryResponse is the payload of GET /payments-summary.
type SummaryResponse struct {
	Default  Summary `json:"default"`
	Fallback Summary `json:"fallback"`
}

// NewSummaryResponse returns a response with zero-valued (not nil) totals so
// an empty ledger still serializes as {"totalRequests":0,"totalAmount":0}.
func NewSummaryResponse() SummaryResponse {
	return SummaryResponse{
		Default:  Summary{TotalAmount: decimal.Zero},
		Fallback: Summary{TotalAmount: decimal.Zero},
	}
}

// Add folds one entry into the summary for its processor.
func (r *SummaryResponse) Add(e LedgerEntry) {
	switch e.Processor {
	case ProcessorDefault:
		r.Default.TotalRequests++
		r.Default.TotalAmount = r.Default.TotalAmount.Add(e.Amount)
	case ProcessorFallback:
		r.Fallback.TotalRequests++
		r.Fallback.TotalAmount = r.Fallback.TotalAmount.Add(e.Amount)
	}
}
