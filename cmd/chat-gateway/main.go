package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-chat-gateway/internal/agent"
	"github.com/aescanero/dago-chat-gateway/internal/config"
	"github.com/aescanero/dago-chat-gateway/internal/events"
	"github.com/aescanero/dago-chat-gateway/internal/knowledge"
	"github.com/aescanero/dago-chat-gateway/internal/router"
	"github.com/aescanero/dago-chat-gateway/internal/server"
	"github.com/aescanero/dago-chat-gateway/internal/session"
	"github.com/aescanero/dago-chat-gateway/internal/speech"
	"github.com/aescanero/dago-chat-gateway/internal/telemetry"
	"github.com/aescanero/dago-libs/pkg/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting chat gateway",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Redis backs sessions, llm thread history and turn events
	var redisClient *redis.Client
	if cfg.SessionStore == config.SessionStoreRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	metrics := telemetry.NewMetrics()

	// Knowledge base (optional: lookups report "not configured" without it)
	var lookup router.Lookup
	if cfg.SearchConfigured() {
		lookup = knowledge.NewSearchClient(cfg.SearchEndpoint, cfg.SearchIndexName, cfg.SearchAPIKey, logger,
			knowledge.WithAPIVersion(cfg.SearchAPIVersion),
			knowledge.WithHTTPClient(&http.Client{Timeout: cfg.SearchTimeout}),
		)
		logger.Info("knowledge base configured", zap.String("index", cfg.SearchIndexName))
	} else {
		logger.Warn("knowledge base credentials not provided (transport lookups will report not configured)")
	}

	routerInstance, err := initRouter(cfg, lookup, logger)
	if err != nil {
		logger.Fatal("failed to initialize router", zap.Error(err))
	}
	logger.Info("router initialized")

	// Agent (optional: chat answers 500 without it)
	agentInstance, err := initAgent(cfg, redisClient, logger)
	if err != nil {
		logger.Warn("failed to initialize agent (chat will not be available)", zap.Error(err))
	}

	deps := server.Deps{
		Router:  routerInstance,
		Metrics: metrics,
		Logger:  logger,
		Events:  events.Nop{},
	}

	if agentInstance != nil {
		var store session.Store
		if redisClient != nil {
			store = session.NewRedisStore(redisClient, cfg.SessionTTL)
		} else {
			store = session.NewMemoryStore(cfg.SessionTTL)
		}
		deps.Agent = agentInstance
		deps.Resolver = session.NewResolver(store, agentInstance.CreateThread, logger,
			session.WithResolveTimeout(cfg.AgentTimeout),
		)
	}

	if cfg.SpeechConfigured() {
		deps.Speech = speech.NewClient(cfg.SpeechKey, cfg.SpeechRegion, logger,
			speech.WithVoice(cfg.SpeechVoice),
			speech.WithOutputFormat(cfg.SpeechOutputFormat),
			speech.WithHTTPClient(&http.Client{Timeout: cfg.SpeechTimeout}),
		)
		logger.Info("speech service configured", zap.String("region", cfg.SpeechRegion))
	} else {
		logger.Warn("speech service credentials not provided (speech endpoints will not be available)")
	}

	if redisClient != nil && cfg.EventStream != "" {
		deps.Events = events.NewRedisPublisher(redisClient, cfg.EventStream, logger)
		logger.Info("turn events enabled", zap.String("stream", cfg.EventStream))
	}

	// Start public server
	httpServer := server.NewServer(server.Options{
		Port:          cfg.HTTPPort,
		StaticDir:     cfg.StaticDir,
		CORSOrigin:    cfg.CORSOrigin,
		SessionCookie: cfg.SessionCookie,
		SessionTTL:    cfg.SessionTTL,
		AgentTimeout:  cfg.AgentTimeout,
	}, deps)
	if err := httpServer.Start(); err != nil {
		logger.Fatal("failed to start http server", zap.Error(err))
	}

	// Start health server
	checks := map[string]server.Check{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	healthServer := server.NewHealthServer(cfg.HealthPort, checks, metrics.Handler(), logger)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("chat gateway running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping servers")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop http server", zap.Error(err))
	}

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	default:
		logger.Info("chat gateway stopped gracefully")
	}
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// initRouter builds the query router with the optional rule and template overrides
func initRouter(cfg *config.Config, lookup router.Lookup, logger *zap.Logger) (*router.Router, error) {
	var opts []router.Option

	if cfg.LookupRule != "" {
		classifier, err := router.NewRuleClassifier(cfg.LookupRule, logger)
		if err != nil {
			return nil, fmt.Errorf("invalid LOOKUP_RULE: %w", err)
		}
		opts = append(opts, router.WithClassifier(classifier))
	}
	if cfg.PromptLookupTemplate != "" {
		opts = append(opts, router.WithLookupTemplate(cfg.PromptLookupTemplate))
	}
	if cfg.PromptFreeformTemplate != "" {
		opts = append(opts, router.WithFreeformTemplate(cfg.PromptFreeformTemplate))
	}

	return router.NewRouter(lookup, logger, opts...)
}

// initAgent builds the configured agent backend; nil means chat is unavailable
func initAgent(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (agent.Agent, error) {
	if !cfg.AgentConfigured() {
		logger.Warn("agent credentials not provided (chat will not be available)",
			zap.String("backend", cfg.AgentBackend),
		)
		return nil, nil
	}

	switch cfg.AgentBackend {
	case config.AgentBackendLLM:
		llmClient, err := initLLMClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize llm client: %w", err)
		}
		logger.Info("llm agent initialized",
			zap.String("provider", cfg.LLMProvider),
			zap.String("model", cfg.LLMModel),
		)
		return agent.NewLLMAgent(
			agent.FromLLMClient(llmClient),
			agent.NewRedisHistory(redisClient, cfg.SessionTTL),
			agent.LLMAgentConfig{
				Model:        cfg.LLMModel,
				MaxTokens:    cfg.LLMMaxTokens,
				HistoryLimit: cfg.LLMHistoryLimit,
			},
			logger,
		), nil

	default:
		logger.Info("foundry agent initialized", zap.String("agent_id", cfg.AgentID))
		return agent.NewFoundryClient(cfg.AgentEndpoint, cfg.AgentID, cfg.AgentToken, logger,
			agent.WithAPIVersion(cfg.AgentAPIVersion),
			agent.WithPollInterval(cfg.AgentPollInterval),
		), nil
	}
}

// initLLMClient initializes the LLM client using dago-adapters
func initLLMClient(cfg *config.Config, logger *zap.Logger) (ports.LLMClient, error) {
	return llm.NewClient(&llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Logger:   logger.Named("llm"),
	})
}
