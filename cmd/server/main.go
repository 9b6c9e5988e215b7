package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bankassist/internal/account"
	"bankassist/internal/onboarding/gateway/biometric"
	"bankassist/internal/onboarding/gateway/extraction"
	"bankassist/internal/onboarding/gateway/objectstore"
	"bankassist/internal/onboarding/handler"
	"bankassist/internal/onboarding/service"
	"bankassist/internal/onboarding/session"
	"bankassist/internal/onboarding/store/application"
	"bankassist/internal/platform/config"
	"bankassist/internal/platform/httpserver"
	"bankassist/internal/platform/kafka"
	"bankassist/internal/platform/logger"
	"bankassist/internal/platform/metrics"
	"bankassist/internal/platform/redis"
	"bankassist/internal/platform/token"
	"bankassist/pkg/platform/audit"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives under internal/onboarding.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bankassist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Durable stores. Without a DSN everything runs in memory, which is only
	// meant for local development.
	var (
		applications service.ApplicationStore
		balances     service.BalanceReader
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		applications = application.NewPostgres(db)
		balances = account.NewPostgresReader(db)
	} else {
		log.Warn("DATABASE_URL not set, applications and balances are in-memory")
		applications = application.NewInMemoryStore()
		balances = account.NewInMemoryReader()
	}

	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		rdb, err := redis.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		if rdb == nil {
			return errors.New("SESSION_BACKEND=redis requires REDIS_URL")
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb)
	default:
		sessions = session.NewInMemoryStore()
	}

	gemini, err := extraction.NewGemini(ctx, cfg.VertexProject, cfg.VertexRegion)
	if err != nil {
		return fmt.Errorf("init extraction gateway: %w", err)
	}
	defer gemini.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	faces := biometric.NewFromConfig(awsCfg, cfg.FaceMatchThreshold)
	objects := objectstore.NewFromConfig(awsCfg, cfg.StoragePublicBaseURL)

	// Audit events flow through a buffered publisher; with no brokers
	// configured they land in the log instead of Kafka.
	publisher := audit.NewPublisher(256, log)
	var sink audit.Sink = audit.LogSink{Logger: log}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		defer producer.Close()
		sink = producer
	}

	svc, err := service.New(
		sessions, gemini, faces, objects, applications,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithBalanceReader(balances),
		service.WithBucket(cfg.DocumentBucket),
	)
	if err != nil {
		return fmt.Errorf("init onboarding service: %w", err)
	}

	validator := token.NewValidator(cfg.JWTSigningKey)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, m, validator, cfg.RequestTimeout).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := publisher.Run(gctx, sink); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting bankassist", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
