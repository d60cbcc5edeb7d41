package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/activityregistry/internal/api"
	"example.com/activityregistry/internal/config"
	"example.com/activityregistry/internal/domain"
	"example.com/activityregistry/internal/logger"
	"example.com/activityregistry/internal/observability"
	"example.com/activityregistry/internal/outbox"
	"example.com/activityregistry/internal/registry"
	httptransport "example.com/activityregistry/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:        cfg.LogLevel,
		Format:       cfg.LogFormat,
		RedactEmails: cfg.LogRedactionEnabled,
		HashSalt:     cfg.LogHashSalt,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := buildRegistry(cfg, log)
	if err != nil {
		log.Fatal("failed to seed registry", zap.Error(err))
	}
	seedRosterGauges(ctx, reg)

	var publisher outbox.Publisher = outbox.NoopPublisher{}
	var dispatcher *outbox.Dispatcher
	if cfg.EventsEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(producer, outbox.Config{
			Topic:         cfg.RosterTopic,
			BufferSize:    cfg.OutboxBufferSize,
			BatchSize:     cfg.OutboxBatchSize,
			FlushInterval: cfg.OutboxFlushInterval,
		}, log.Named("outbox"))
		go dispatcher.Start(ctx)
		publisher = dispatcher
		log.Info("roster events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.RosterTopic))
	} else {
		log.Info("KAFKA_BROKERS not set, roster events disabled")
	}

	service := domain.NewService(reg, publisher, log.Named("domain"))
	handler := api.NewHandler(service, log.Named("api"))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux,
			httptransport.Observe(log.Named("http"), api.RouteLabel),
			httptransport.CORS(cfg.CORSAllowedOrigin),
		),
		log,
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("activity-registry listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}

	// Stop the dispatcher only after in-flight requests finish publishing.
	cancel()
	if dispatcher != nil {
		dispatcher.Wait()
	}
}

func buildRegistry(cfg config.Config, log *zap.Logger) (*registry.InMemoryRegistry, error) {
	if cfg.SeedFile == "" {
		log.Info("SEED_FILE not set, using embedded catalog")
		return registry.NewDefault()
	}
	seed, err := registry.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	log.Info("loaded seed catalog", zap.String("path", cfg.SeedFile), zap.Int("activities", len(seed)))
	return registry.New(seed)
}

func seedRosterGauges(ctx context.Context, reg *registry.InMemoryRegistry) {
	activities, _ := reg.List(ctx)
	for _, activity := range activities {
		observability.SetRosterSize(activity.Name, len(activity.Participants))
	}
}
