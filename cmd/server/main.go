// Command server runs the capacity allocation and approval workflow
// engine: the HTTP API, the outbox delivery worker, and the live-update
// fanout. Business logic lives in the internal services; main only wires
// dependencies and owns the process lifecycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fieldsafe/internal/events"
	"fieldsafe/internal/ledger"
	ledgerhandler "fieldsafe/internal/ledger/handler"
	"fieldsafe/internal/platform/config"
	"fieldsafe/internal/platform/httpserver"
	"fieldsafe/internal/platform/logger"
	"fieldsafe/internal/platform/metrics"
	"fieldsafe/internal/platform/middleware"
	"fieldsafe/internal/platform/postgres"
	platformredis "fieldsafe/internal/platform/redis"
	httptransport "fieldsafe/internal/transport/http"
	"fieldsafe/internal/visit"
	visithandler "fieldsafe/internal/visit/handler"
	"fieldsafe/internal/worksite"
	worksitehandler "fieldsafe/internal/worksite/handler"
	txcontext "fieldsafe/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fieldsafe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthChecker{}

	// Persistence backend.
	var (
		personStore   ledger.Store
		worksiteStore worksite.Store
		visitStore    visit.Store
		outbox        events.OutboxStore
		runner        txcontext.Runner
	)
	if cfg.UsesPostgres() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
		}

		personStore = ledger.NewPostgres(pool)
		worksiteStore = worksite.NewPostgres(pool)
		visitStore = visit.NewPostgres(pool)
		outbox = events.NewPostgresOutbox(pool)
		runner = postgres.NewTxRunner(pool)
		health["postgres"] = pool.Ping
		log.Info("using postgres storage")
	} else {
		personStore = ledger.NewInMemory()
		worksiteStore = worksite.NewInMemory()
		visitStore = visit.NewInMemory()
		outbox = events.NewMemoryOutbox()
		runner = txcontext.NewMemoryRunner()
		log.Warn("using in-memory storage, data will not survive restarts")
	}

	// Event delivery. With Kafka configured, services write to the
	// transactional outbox and the worker drains it; without, events
	// stay in-process.
	var publisher events.Publisher = events.NopPublisher{}
	var worker *events.Worker
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()

		publisher = events.NewOutboxRecorder(outbox)
		worker = events.NewWorker(outbox, kafkaPublisher, log,
			events.WithPollInterval(cfg.Outbox.PollInterval),
			events.WithBatchSize(cfg.Outbox.BatchSize),
		)
		log.Info("kafka event delivery enabled", "topic", cfg.Kafka.Topic)
	}

	// Live calendar fanout: through Redis when configured, in-process
	// otherwise.
	hub := visit.NewHub()
	var broadcaster visit.Broadcaster = visit.NewLocalBroadcaster(hub)
	var redisBroadcaster *visit.RedisBroadcaster
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		redisBroadcaster = visit.NewRedisBroadcaster(redisClient.Client, hub, log)
		broadcaster = redisBroadcaster
		health["redis"] = redisClient.Health
		log.Info("redis fanout enabled")
	}

	// Services.
	ledgerService := ledger.NewService(personStore,
		ledger.WithLogger(log),
		ledger.WithMetrics(m),
		ledger.WithPublisher(publisher),
	)
	worksiteService := worksite.NewService(worksiteStore, ledgerService, runner,
		worksite.WithLogger(log),
		worksite.WithMetrics(m),
	)
	visitService := visit.NewService(visitStore, worksiteService,
		visit.WithLogger(log),
		visit.WithMetrics(m),
		visit.WithPublisher(publisher),
		visit.WithBroadcaster(broadcaster),
	)

	// Transport.
	var validator *middleware.JWTValidator
	if cfg.Auth.JWTSecret != "" {
		validator = middleware.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	} else {
		log.Warn("AUTH_JWT_SECRET not set, authentication disabled")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Validator: validator,
		Persons:   ledgerhandler.New(ledgerService, log),
		Worksites: worksitehandler.New(worksiteService, log),
		Visits:    visithandler.New(visitService, hub, log),
		Health:    health,
	})
	srv := httpserver.New(cfg.Server, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if worker != nil {
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if redisBroadcaster != nil {
		group.Go(func() error {
			if err := redisBroadcaster.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
