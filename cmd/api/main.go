package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedkhairy/trading-kb/internal/api"
	"github.com/mohamedkhairy/trading-kb/internal/config"
	"github.com/mohamedkhairy/trading-kb/internal/engine"
	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/pubsub"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting knowledge base API",
		logger.Int("port", cfg.API.Port),
		logger.String("rule_store", cfg.Engine.RuleStoreType),
		logger.Int("max_steps", cfg.Engine.MaxSteps),
	)

	store, redisClient, cleanup, err := buildRuleStore(cfg)
	if err != nil {
		logger.Fatal("Failed to build rule store", logger.ErrorField(err))
	}
	defer cleanup()

	var publisher *pubsub.ResultPublisher
	if redisClient != nil {
		publisher, err = pubsub.NewResultPublisher(redisClient, pubsub.DefaultResultPublisherConfig())
		if err != nil {
			logger.Fatal("Failed to create result publisher", logger.ErrorField(err))
		}
	}

	var results storage.ResultStorage
	if cfg.Database.EnableAudit {
		pg, err := storage.NewPostgresResultStorage(cfg.Database.ConnString())
		if err != nil {
			logger.Fatal("Failed to connect to result storage", logger.ErrorField(err))
		}
		defer pg.Close()
		results = pg
	}

	handler, err := api.NewHandler(api.HandlerConfig{
		Store:          store,
		Registry:       facts.NewRegistry(),
		Thresholds:     facts.Thresholds(cfg.Engine.Thresholds),
		Engine:         engine.Config{MaxSteps: cfg.Engine.MaxSteps},
		Results:        results,
		Publisher:      publisher,
		ReloadInterval: cfg.Engine.RuleReloadInterval,
		BatchWorkers:   cfg.Engine.BatchWorkers,
	})
	if err != nil {
		logger.Fatal("Failed to create API handler", logger.ErrorField(err))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      handler.Router(cfg.API.RateLimitRPS),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", logger.ErrorField(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down knowledge base API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", logger.ErrorField(err))
	}
}

// buildRuleStore assembles the configured rule store. The in-memory
// store is seeded from the rule file, or the built-in library when no
// file is configured. The redis store is additionally synced with the
// seed rules so fresh deployments start populated. The returned Redis
// client is nil for the in-memory store.
func buildRuleStore(cfg *config.Config) (rules.RuleStore, storage.RedisClient, func(), error) {
	seed, err := loadSeedRules(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	noop := func() {}

	switch cfg.Engine.RuleStoreType {
	case config.RuleStoreMemory:
		return rules.NewInMemoryRuleStoreFromSet(seed), nil, noop, nil

	case config.RuleStoreRedis:
		client, err := storage.NewRedisClient(storage.RedisOptions{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, nil, nil, err
		}

		redisStore, err := rules.NewRedisRuleStore(client, rules.DefaultRedisRuleStoreConfig())
		if err != nil {
			client.Close()
			return nil, nil, nil, err
		}

		sync := rules.NewRuleSyncService(rules.NewInMemoryRuleStoreFromSet(seed), redisStore)
		if err := sync.SyncAllRules(); err != nil {
			logger.Warn("Failed to sync seed rules to Redis", logger.ErrorField(err))
		}

		return redisStore, client, func() { client.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown rule store type %q", cfg.Engine.RuleStoreType)
	}
}

func loadSeedRules(cfg *config.Config) (*rules.Set, error) {
	if cfg.Engine.RuleFile == "" {
		return rules.DefaultTradingRules(), nil
	}
	set, err := rules.LoadSetFromFile(cfg.Engine.RuleFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule file: %w", err)
	}
	logger.Info("Loaded rules from file",
		logger.String("path", cfg.Engine.RuleFile),
		logger.Int("count", set.Len()),
	)
	return set, nil
}
