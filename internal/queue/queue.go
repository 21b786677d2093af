package queue

import (
	"context"
	"errors"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// ErrSaturated is returned when the ingestion buffer is full. The handler
// rejects the request instead of blocking the acknowledgment path.
var ErrSaturated = errors.New("ingestion queue saturated")

// Queue is the in-process ingestion buffer between request acknowledgment and
// settlement. Multi-producer, multi-consumer; Enqueue never blocks beyond the
// (large) buffer bound so acknowledgment latency is dominated by the enqueue
// itself, not by upstream calls.
type Queue struct {
	ch chan payments.Payment
}

func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan payments.Payment, capacity)}
}

func (q *Queue) Enqueue(ctx context.Context, p payments.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- p:
		return nil
	default:
		return ErrSaturated
	}
}

// Dequeue blocks until a payment is available or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (payments.Payment, error) {
	select {
	case p := <-q.ch:
		return p, nil
	case <-ctx.Done():
		return payments.Payment{}, ctx.Err()
	}
}

// TryDequeue drains one buffered payment without blocking. Workers use it to
// fill a batch after a blocking Dequeue has yielded the first item.
func (q *Queue) TryDequeue() (payments.Payment, bool) {
	select {
	case p := <-q.ch:
		return p, true
	default:
		return payments.Payment{}, false
	}
}

func (q *Queue) Len() int { return len(q.ch) }
