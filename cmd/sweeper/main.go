// Sweeper periodically claims expired sessions and records their expire events.
// Set DATABASE_URL; SWEEP_INTERVAL controls the cadence. KAFKA_BROKERS enables
// the ops channel, REDIS_ADDR the shared summary cache, OTLP_ENDPOINT telemetry
// export.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"sessionguard/internal/analytics"
	"sessionguard/internal/config"
	"sessionguard/internal/db"
	"sessionguard/internal/diag"
	"sessionguard/internal/diag/producer"
	"sessionguard/internal/event"
	eventrepo "sessionguard/internal/event/repository"
	"sessionguard/internal/fingerprint"
	"sessionguard/internal/lifecycle"
	sessionrepo "sessionguard/internal/session/repository"
	"sessionguard/internal/telemetry/otel"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "sweeper").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "sessionguard-sweeper", cfg.OTLPInsecure)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer database.Close()

	kafkaProducer := producer.NewKafkaProducer(cfg.OpsKafkaBrokersList(), cfg.OpsKafkaTopic)
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
	}
	reporter := diag.NewReporter(kafkaProducer, log)

	// Expire events change risk signals, so the sweeper must invalidate the
	// same shared summary cache the read path uses.
	var cache analytics.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
		cache = analytics.NewRedisCache(redisClient, cfg.CacheTTL(), log)
	}

	recorder := event.NewRecorder(eventrepo.NewPostgresRepository(database), reporter, log)
	controller := lifecycle.NewController(
		sessionrepo.NewPostgresRepository(database),
		recorder,
		fingerprint.NewResolver(nil),
		cache,
		cfg.SessionLifetime(),
		cfg.RememberMeLifetime(),
		log,
	)

	tracer := providers.TracerProvider.Tracer("sessionguard/cmd/sweeper")
	meter := providers.MeterProvider.Meter("sessionguard/cmd/sweeper")
	sweptCounter, err := meter.Int64Counter("sessionguard.sessions.swept",
		metric.WithDescription("Expired sessions claimed by the sweeper."),
		metric.WithUnit("{session}"))
	if err != nil {
		log.Fatal().Err(err).Msg("otel counter")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		cancel()
		time.Sleep(diag.ShutdownDrainDuration)
	}()

	interval := cfg.SweepEvery()
	log.Info().Dur("interval", interval).Msg("sweeping expired sessions")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, interval)
		spanCtx, span := tracer.Start(sweepCtx, "sweep_expired")
		n, err := controller.SweepExpired(spanCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sweep failed")
			log.Error().Err(err).Msg("sweep failed")
		} else {
			sweptCounter.Add(spanCtx, int64(n))
			span.SetAttributes(attribute.Int("sessions.swept", n))
			if n > 0 {
				log.Info().Int("count", n).Msg("expired sessions claimed")
			}
		}
		span.End()
		sweepCancel()

		select {
		case <-ctx.Done():
			log.Info().Msg("stopped")
			return
		case <-ticker.C:
		}
	}
}
