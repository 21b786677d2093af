package redisstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// Ledger members are "correlationId|amount". The correlation id keys the
// member, so re-recording the same settlement rewrites the same member and
// the set stays duplicate-free under retry storms.
func encodeMember(e payments.LedgerEntry) string {
	return e.CorrelationID.String() + "|" + e.Amount.String()
}

func decodeMember(member string) (uuid.UUID, decimal.Decimal, error) {
	id, rest, ok := strings.Cut(member, "|")
	if !ok {
		return uuid.Nil, decimal.Zero, fmt.Errorf("malformed ledger member %q", member)
	}
	correlationID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("parse correlation id: %w", err)
	}
	amount, err := decimal.NewFromString(rest)
	if err != nil {
		return uuid.Nil, decimal.Zero, fmt.Errorf("parse amount: %w", err)
	}
	return correlationID, amount, nil
}

// sumMembers aggregates a range of ledger members with exact decimal
// arithmetic. Malformed members abort the summary rather than silently
// undercounting.
func sumMembers(members []string) (payments.Summary, error) {
	summary := payments.Summary{TotalAmount: decimal.Zero}
	for _, member := range members {
		_, amount, err := decodeMember(member)
		if err != nil {
			return payments.Summary{}, err
		}
		summary.TotalRequests++
		summary.TotalAmount = summary.TotalAmount.Add(amount)
	}
	return summary, nil
}
