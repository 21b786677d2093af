package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-payment-relay/internal/queue"
	"github.com/imrishuroy/go-payment-relay/internal/store"
	"github.com/imrishuroy/go-payment-relay/internal/validation"
)

// HandlerConfig groups dependencies for the payments handlers.
type HandlerConfig struct {
	Queue   *queue.Queue
	Ledger  store.Ledger
	Pending store.PendingQueue
}

// RegisterPaymentRoutes registers the gateway's HTTP surface.
//
// POST /payments acknowledges as soon as the submission is enqueued; the
// settlement outcome is asynchronous and only observable via the summary.
func RegisterPaymentRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/payments", func(c *gin.Context) {
		var req validation.PaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		payment, err := req.Payment()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_correlation_id"})
			return
		}

		if err := cfg.Queue.Enqueue(c.Request.Context(), payment); err != nil {
			if errors.Is(err, queue.ErrSaturated) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue_saturated"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
			return
		}

		c.Status(http.StatusAccepted)
	})

	r.GET("/payments-summary", func(c *gin.Context) {
		from, ok := parseTimeParam(c, "from")
		if !ok {
			return
		}
		to, ok := parseTimeParam(c, "to")
		if !ok {
			return
		}

		summary, err := cfg.Ledger.Summarize(c.Request.Context(), from, to)
		if err != nil {
			log.Printf("handlers: summarize: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "summary_failed"})
			return
		}

		c.JSON(http.StatusOK, summary)
	})

	r.POST("/purge-payments", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := cfg.Ledger.Purge(ctx); err != nil {
			log.Printf("handlers: purge ledger: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purge_failed"})
			return
		}
		if err := cfg.Pending.Purge(ctx); err != nil {
			log.Printf("handlers: purge pending: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "purge_failed"})
			return
		}
		c.Status(http.StatusOK)
	})
}

// parseTimeParam reads an optional RFC3339 query param. Absent means
// unbounded in that direction. On a malformed value it writes a 400 and
// returns ok=false.
func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid_time_format",
			"msg":   name + " must be RFC3339, e.g. 2006-01-02T15:04:05.000Z",
		})
		return nil, false
	}
	return &parsed, true
}
