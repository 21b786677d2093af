package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	internalaws "github.com/imrishuroy/go-payment-relay/internal/aws"
	"github.com/imrishuroy/go-payment-relay/internal/config"
	"github.com/imrishuroy/go-payment-relay/internal/executor"
	"github.com/imrishuroy/go-payment-relay/internal/handlers"
	"github.com/imrishuroy/go-payment-relay/internal/metrics"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
	"github.com/imrishuroy/go-payment-relay/internal/processor"
	"github.com/imrishuroy/go-payment-relay/internal/queue"
	"github.com/imrishuroy/go-payment-relay/internal/settle"
	"github.com/imrishuroy/go-payment-relay/internal/store"
	"github.com/imrishuroy/go-payment-relay/internal/store/awsstore"
	"github.com/imrishuroy/go-payment-relay/internal/store/redisstore"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, pending, recorder, err := buildStores(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize store backend: %v", err)
	}

	defaultClient := processor.NewHTTPClient(payments.ProcessorDefault, cfg.DefaultProcessorURL, cfg.ProcessorTimeout)
	fallbackClient := processor.NewHTTPClient(payments.ProcessorFallback, cfg.FallbackProcessorURL, cfg.ProcessorTimeout)

	routing := processor.NewRoutingTable()
	monitor := processor.NewMonitor(defaultClient, fallbackClient, routing, cfg.HealthCheckInterval, cfg.MaxResponseTimeMs)

	ingestion := queue.New(cfg.QueueCapacity)
	exec := executor.New(cfg.MaxConcurrency)
	settler := settle.NewSettler(defaultClient, fallbackClient, ledger, routing)
	sweeper := settle.NewSweeper(pending, settler, exec, recorder, cfg.SweepInterval, cfg.SweepBatchSize)

	go monitor.Run(ctx)
	go sweeper.Run(ctx)
	for i := 0; i < cfg.WorkerCount; i++ {
		worker := settle.NewWorker(ingestion, settler, pending, exec, recorder, cfg.MaxConcurrency)
		go worker.Run(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterPaymentRoutes(r, handlers.HandlerConfig{
		Queue:   ingestion,
		Ledger:  ledger,
		Pending: pending,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on port %s (store backend: %s)", cfg.Port, cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	// Background loops observe ctx and finish their in-flight attempts.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// buildStores wires the configured persistence backend behind the store
// interfaces, plus the matching metrics recorder.
func buildStores(ctx context.Context, cfg *config.Config) (store.Ledger, store.PendingQueue, metrics.Recorder, error) {
	switch cfg.StoreBackend {
	case config.BackendAWS:
		clients, err := internalaws.NewAWSClients(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		var recorder metrics.Recorder = metrics.Noop{}
		if cfg.MetricsNamespace != "" {
			recorder = metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace)
		}
		return awsstore.NewLedger(clients.DynamoDB, cfg.LedgerTable),
			awsstore.NewPendingQueue(clients.SQS, cfg.PendingQueueURL),
			recorder, nil
	default:
		rs, err := redisstore.New(cfg.RedisAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		return rs, rs, metrics.Noop{}, nil
	}
}
