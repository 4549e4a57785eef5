package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/shivamghaware/BlogIn/cmd/server"
	"github.com/shivamghaware/BlogIn/cmd/worker"
	appkafka "github.com/shivamghaware/BlogIn/internal/broker"
	"github.com/shivamghaware/BlogIn/internal/events"
	config "github.com/shivamghaware/BlogIn/internal/init"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/middleware"
	"github.com/shivamghaware/BlogIn/internal/repository"
	"github.com/shivamghaware/BlogIn/internal/seed"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/suggest"
)

func main() {
	// Initialize application configuration
	cfg := config.Init()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	mode := cfg.Mode

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}

	origin := mode + "-" + uuid.NewString()
	bus := events.NewBus(origin)
	st := store.NewAdapter(kv, bus, store.WithLatency(cfg.SimulatedLatency))
	defer st.Close()

	if err := seed.New(st).EnsureSeeded(ctx); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	svc := suggest.NewService(suggest.NewOpenAIClassifier(cfg))

	// Local writes go out to Kafka so other instances can refresh.
	var bridge *appkafka.Bridge
	if cfg.KafkaEnabled {
		writer, err := appkafka.NewKafkaWriter(ctx, appkafka.ConfigFrom(cfg, cfg.KafkaGroupID))
		if err != nil {
			log.Fatalf("Kafka writer init failed: %v", err)
		}
		bridge = appkafka.NewBridge(bus, writer, cfg.WorkerQueueSize)
		bridge.Start(ctx)
		defer bridge.Close()
	}

	// Run application depending on selected mode
	switch mode {
	case "server":
		if cfg.KafkaEnabled {
			// Each instance reads the whole topic under its own group.
			reader := appkafka.NewKafkaReader(appkafka.ConfigFrom(cfg, cfg.KafkaGroupID+"-"+origin))
			relay := worker.New(reader, worker.NewRelay(bus), 1, cfg.WorkerQueueSize)
			defer relay.Close()
			go relay.Run(ctx)
		}
		s := server.New(st, middleware.NewSessions(cfg.JWTSecret, 0), svc)
		if err := server.Run(ctx, s, cfg); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case "worker":
		if !cfg.KafkaEnabled {
			log.Fatalf("worker mode needs KAFKA_ENABLED=true")
		}
		repos := repository.New(st, nil)
		reader := appkafka.NewKafkaReader(appkafka.ConfigFrom(cfg, cfg.KafkaGroupID))
		w := worker.New(reader, worker.NewSuggester(st, repos.Posts, svc, nil), cfg.WorkerCount, cfg.WorkerQueueSize)
		defer w.Close()
		w.Run(ctx)
	default:
		log.Fatalf("unknown mode: %s", mode)
	}

	log.Println("Shutdown completed")
}
