// Package store fixes the persistence interface the gateway depends on. Two
// backings implement it: redisstore (sorted set + list) and awsstore
// (DynamoDB + SQS). Any store offering an ordered append structure and an
// atomic FIFO pop is substitutable.
package store

import (
	"context"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// Ledger is the append-only, time-ordered record of settled payments and the
// source of truth for summaries.
type Ledger interface {
	// Record appends one settled payment. It is idempotent per correlation
	// id: recording the same settlement twice must not change the summary.
	// Safe for concurrent writers.
	Record(ctx context.Context, e payments.LedgerEntry) error

	// Summarize aggregates entries whose requestedAt falls in the inclusive
	// [from, to] range; a nil bound is unbounded in that direction.
	// Summation is exact fixed-point, never binary floating point.
	Summarize(ctx context.Context, from, to *time.Time) (payments.SummaryResponse, error)

	// Purge removes every entry. Administrative/test use only.
	Purge(ctx context.Context) error
}

// PendingQueue holds payments that failed settlement on both processors and
// await retry by the sweeper.
type PendingQueue interface {
	Push(ctx context.Context, p payments.PendingPayment) error

	// PopBatch atomically removes and returns up to max entries in FIFO-ish
	// order. An empty store yields an empty slice, not an error.
	PopBatch(ctx context.Context, max int) ([]payments.PendingPayment, error)

	Purge(ctx context.Context) error
}
