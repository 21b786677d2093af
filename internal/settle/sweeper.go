package settle

import (
	"context"
	"log"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/executor"
	"github.com/imrishuroy/go-payment-relay/internal/metrics"
	"github.com/imrishuroy/go-payment-relay/internal/store"
)

// Sweeper polls the pending store and re-drives failed payments through the
// same settlement path, hint first. Entries that fail again go back to the
// store with their original requestedAt: eventual delivery under sustained
// partial outage, at the cost of latency.
type Sweeper struct {
	dispatcher
	interval  time.Duration
	batchSize int
}

func NewSweeper(pending store.PendingQueue, settler *Settler, exec *executor.Executor, rec metrics.Recorder, interval time.Duration, batchSize int) *Sweeper {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Sweeper{
		dispatcher: dispatcher{settler: settler, pending: pending, exec: exec, metrics: rec},
		interval:   interval,
		batchSize:  batchSize,
	}
}

// Run polls until ctx is cancelled. This is a polling loop, not a blocking
// pop: an empty store means a short sleep, a non-empty one is drained batch
// after batch. Errors in one cycle never stop the next.
func (s *Sweeper) Run(ctx context.Context) {
	log.Println("sweeper: started")
	for {
		if ctx.Err() != nil {
			log.Println("sweeper: stopping")
			return
		}
		if !s.sweep(ctx) {
			s.sleep(ctx)
		}
	}
}

// sweep pops and processes one batch, reporting whether there was any work.
func (s *Sweeper) sweep(ctx context.Context) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sweeper: recovered from panic: %v", r)
		}
	}()

	batch, err := s.pending.PopBatch(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("sweeper: pop batch: %v", err)
		}
		return false
	}
	if len(batch) == 0 {
		return false
	}

	s.dispatch(ctx, batch)
	return true
}

func (s *Sweeper) sleep(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
