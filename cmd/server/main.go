// Command server wires the compliance engine behind the HTTP API. Business
// logic lives in the internal service packages; main only assembles them.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tutela/internal/audit"
	auditkafka "tutela/internal/audit/kafka"
	"tutela/internal/consent"
	"tutela/internal/domain"
	"tutela/internal/identifier"
	"tutela/internal/platform/config"
	"tutela/internal/platform/httpserver"
	"tutela/internal/platform/logger"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/middleware"
	"tutela/internal/platform/postgres"
	platformredis "tutela/internal/platform/redis"
	"tutela/internal/processing"
	"tutela/internal/regulation"
	regulationmetrics "tutela/internal/regulation/metrics"
	"tutela/internal/rights"
	"tutela/internal/subject"
	httptransport "tutela/internal/transport/http"
	"tutela/pkg/platform/keylock"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		subjectStore    subject.Store
		consentStore    consent.Store
		processingStore processing.Store
		auditStore      audit.Store
	)
	if db != nil {
		subjectStore = subject.NewPostgresStore(db)
		consentStore = consent.NewPostgresStore(db)
		processingStore = processing.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres stores")
	} else {
		subjectStore = subject.NewInMemoryStore()
		consentStore = consent.NewInMemoryStore()
		processingStore = processing.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	httpMetrics := metrics.New()
	checkMetrics := regulationmetrics.New()
	entityIDs := identifier.UUID{}
	eventIDs := identifier.NewULID()
	locks := keylock.New()

	group, ctx := errgroup.WithContext(ctx)

	trailOpts := []audit.Option{audit.WithLogger(log)}
	var mirror chan domain.AuditEvent
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka mirror setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer publisher.Close()

		mirror = make(chan domain.AuditEvent, 256)
		trailOpts = append(trailOpts, audit.WithMirror(mirror))
		group.Go(func() error {
			err := publisher.Run(ctx, mirror)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		log.Info("audit mirror enabled", "topic", cfg.Kafka.Topic)
	}
	trail := audit.NewTrail(auditStore, eventIDs, trailOpts...)

	subjects := subject.NewRegistry(subjectStore, entityIDs, trail, subject.WithLogger(log))
	consents := consent.NewLedger(consentStore, subjects, entityIDs, trail, locks, consent.WithLogger(log))
	processings := processing.NewRegistry(processingStore, entityIDs, trail, processing.WithLogger(log))

	engineOpts := []regulation.Option{
		regulation.WithLogger(log),
		regulation.WithMetrics(checkMetrics),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		engineOpts = append(engineOpts,
			regulation.WithCheckCache(regulation.NewRedisCheckCache(redisClient, cfg.Redis.CacheTTL)))
		log.Info("compliance check cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}
	engine := regulation.NewEngine(consents, subjects, engineOpts...)

	coordinator := rights.NewCoordinator(subjects, consents, processings, trail, locks,
		rights.WithLogger(log),
		rights.WithMetrics(httpMetrics),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Subjects:       subjects,
		Consents:       consents,
		Processings:    processings,
		Compliance:     engine,
		Rights:         coordinator,
		Audit:          trail,
		Logger:         log,
		Metrics:        httpMetrics,
		JWTValidator:   middleware.NewHMACValidator(cfg.JWTSigningKey),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
