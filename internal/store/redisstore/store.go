// Package redisstore backs the ledger and pending queue with Redis: one
// sorted set per processor scored by requestedAt, and a list for pending
// retries.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

const (
	ledgerKeyDefault  = "payments:ledger:default"
	ledgerKeyFallback = "payments:ledger:fallback"
	pendingKey        = "payments:pending"
)

type Store struct {
	client *redis.Client
}

func New(addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            addr,
		PoolSize:        500,
		MinIdleConns:    20,
		PoolTimeout:     2 * time.Second,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     1 * time.Second,
		WriteTimeout:    1 * time.Second,
		MaxRetries:      1,
		MaxRetryBackoff: 256 * time.Millisecond,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: rdb}, nil
}

func ledgerKey(p payments.Processor) string {
	if p == payments.ProcessorFallback {
		return ledgerKeyFallback
	}
	return ledgerKeyDefault
}

// Record appends the entry to the processor's sorted set. ZADD on an existing
// member only rewrites its score, so concurrent and repeated writes for the
// same correlation id collapse to one entry.
func (s *Store) Record(ctx context.Context, e payments.LedgerEntry) error {
	member := redis.Z{
		Score:  float64(e.RequestedAt.UnixMilli()),
		Member: encodeMember(e),
	}
	if err := s.client.ZAdd(ctx, ledgerKey(e.Processor), member).Err(); err != nil {
		return fmt.Errorf("ledger zadd: %w", err)
	}
	return nil
}

func (s *Store) Summarize(ctx context.Context, from, to *time.Time) (payments.SummaryResponse, error) {
	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if from != nil {
		rangeBy.Min = strconv.FormatInt(from.UnixMilli(), 10)
	}
	if to != nil {
		rangeBy.Max = strconv.FormatInt(to.UnixMilli(), 10)
	}

	resp := payments.NewSummaryResponse()

	defaultMembers, err := s.client.ZRangeByScore(ctx, ledgerKeyDefault, rangeBy).Result()
	if err != nil {
		return resp, fmt.Errorf("ledger range (default): %w", err)
	}
	if resp.Default, err = sumMembers(defaultMembers); err != nil {
		return resp, err
	}

	fallbackMembers, err := s.client.ZRangeByScore(ctx, ledgerKeyFallback, rangeBy).Result()
	if err != nil {
		return resp, fmt.Errorf("ledger range (fallback): %w", err)
	}
	if resp.Fallback, err = sumMembers(fallbackMembers); err != nil {
		return resp, err
	}

	return resp, nil
}

func (s *Store) Purge(ctx context.Context) error {
	if err := s.client.Del(ctx, ledgerKeyDefault, ledgerKeyFallback, pendingKey).Err(); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	log.Println("redisstore: ledger and pending entries purged")
	return nil
}

func (s *Store) Push(ctx context.Context, p payments.PendingPayment) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending payment: %w", err)
	}
	if err := s.client.LPush(ctx, pendingKey, body).Err(); err != nil {
		return fmt.Errorf("pending lpush: %w", err)
	}
	return nil
}

// PopBatch removes up to max entries with a single RPOP, which is atomic:
// two sweepers can never observe the same batch.
func (s *Store) PopBatch(ctx context.Context, max int) ([]payments.PendingPayment, error) {
	raw, err := s.client.RPopCount(ctx, pendingKey, max).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending rpop: %w", err)
	}

	batch := make([]payments.PendingPayment, 0, len(raw))
	for _, body := range raw {
		var p payments.PendingPayment
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			log.Printf("redisstore: dropping malformed pending entry: %v", err)
			continue
		}
		batch = append(batch, p)
	}
	return batch, nil
}
