package awsstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789012/payments-pending"

func pendingItem(hint payments.Processor) payments.PendingPayment {
	return payments.PendingPayment{
		CorrelationID: uuid.New(),
		Amount:        decimal.RequireFromString("19.90"),
		RequestedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Hint:          hint,
	}
}

func TestPendingQueueRoundTrip(t *testing.T) {
	mock := newMockSQS()
	q := NewPendingQueue(mock, testQueueURL)
	ctx := context.Background()

	want := pendingItem(payments.ProcessorFallback)
	if err := q.Push(ctx, want); err != nil {
		t.Fatalf("push: %v", err)
	}

	batch, err := q.PopBatch(ctx, 10)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("popped %d items, want 1", len(batch))
	}
	got := batch[0]
	if got.CorrelationID != want.CorrelationID {
		t.Fatalf("correlation id %s, want %s", got.CorrelationID, want.CorrelationID)
	}
	if !got.Amount.Equal(want.Amount) {
		t.Fatalf("amount %s, want %s", got.Amount, want.Amount)
	}
	if !got.RequestedAt.Equal(want.RequestedAt) {
		t.Fatalf("requestedAt %s, want %s", got.RequestedAt, want.RequestedAt)
	}
	if got.Hint != payments.ProcessorFallback {
		t.Fatalf("hint %s, want fallback", got.Hint)
	}
	if mock.deleted != 1 {
		t.Fatalf("deleted %d messages, want 1", mock.deleted)
	}
}

func TestPendingQueuePopBatchOrderAndCap(t *testing.T) {
	mock := newMockSQS()
	q := NewPendingQueue(mock, testQueueURL)
	ctx := context.Background()

	ids := make([]uuid.UUID, 12)
	for i := range ids {
		item := pendingItem(payments.ProcessorNone)
		ids[i] = item.CorrelationID
		if err := q.Push(ctx, item); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	// 12 requested, but a single receive tops out at the SQS ceiling of 10.
	batch, err := q.PopBatch(ctx, 12)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != sqsMaxReceive {
		t.Fatalf("popped %d items, want %d", len(batch), sqsMaxReceive)
	}
	for i, item := range batch {
		if item.CorrelationID != ids[i] {
			t.Fatalf("item %d is %s, want %s (FIFO order)", i, item.CorrelationID, ids[i])
		}
	}

	rest, err := q.PopBatch(ctx, 10)
	if err != nil {
		t.Fatalf("second pop: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("second pop returned %d items, want 2", len(rest))
	}
}

func TestPendingQueuePopBatchEmpty(t *testing.T) {
	q := NewPendingQueue(newMockSQS(), testQueueURL)

	batch, err := q.PopBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("popped %d items from an empty queue", len(batch))
	}
}

func TestPendingQueuePurge(t *testing.T) {
	mock := newMockSQS()
	q := NewPendingQueue(mock, testQueueURL)
	ctx := context.Background()

	if err := q.Push(ctx, pendingItem(payments.ProcessorNone)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := q.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if mock.size() != 0 || !mock.purged {
		t.Fatal("purge did not clear the queue")
	}
}
