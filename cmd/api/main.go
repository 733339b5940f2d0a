package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loqui-ai/loqui/internal/api"
	"github.com/loqui-ai/loqui/internal/capability"
	"github.com/loqui-ai/loqui/internal/chat"
	"github.com/loqui-ai/loqui/internal/config"
	"github.com/loqui-ai/loqui/internal/database"
	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/knowledge"
	mw "github.com/loqui-ai/loqui/internal/middleware"
	inats "github.com/loqui-ai/loqui/internal/nats"
	iredis "github.com/loqui-ai/loqui/internal/redis"
	"github.com/loqui-ai/loqui/internal/server"
	"github.com/loqui-ai/loqui/internal/session"
	"github.com/loqui-ai/loqui/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS is optional: the pipeline runs without it, events just stay local.
	var natsClient *inats.Client
	if cfg.NATS.Enabled {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
	}

	// LLM client, shared by every capability
	llmOpts := []option.RequestOption{option.WithAPIKey(cfg.LLM.APIKey)}
	if cfg.LLM.BaseURL != "" {
		llmOpts = append(llmOpts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	llmClient := openai.NewClient(llmOpts...)

	// Session and knowledge stores
	sessions := session.NewStore(redisClient)
	knowledgeRepo := knowledge.NewPostgresRepository(pool)

	// Capability adapters
	registry := capability.NewRegistry()
	registry.Register(engine.CapabilityGeneralConversation,
		capability.NewChat(llmClient, cfg.LLM.ChatModel, sessions))
	registry.Register(engine.CapabilityKnowledgeRetrieval,
		capability.NewKnowledge(llmClient, cfg.LLM.KnowledgeModel, cfg.LLM.EmbeddingModel, knowledgeRepo))
	registry.Register(engine.CapabilityCalendar,
		capability.NewCalendar(capability.StaticSchedule{}))
	registry.Register(engine.CapabilityCardExtraction,
		capability.NewCard(llmClient, cfg.LLM.CardModel, sessions))

	// Cue table
	cues := engine.DefaultCueTable()
	if cfg.Engine.CuesFile != "" {
		cues, err = engine.LoadCueTable(cfg.Engine.CuesFile)
		if err != nil {
			slog.Error("loading cue table", "path", cfg.Engine.CuesFile, "error", err)
			os.Exit(1)
		}
	}

	// Telemetry sinks
	sinks := telemetry.Multi{
		telemetry.NewSlogSink(slog.Default()),
		telemetry.NewPrometheusSink(),
	}
	if natsClient != nil {
		publisher := inats.NewPublisher(natsClient.JetStream())
		sinks = append(sinks, telemetry.NewNATSSink(publisher))
	}

	// Pipeline
	eng := engine.New(
		engine.NewClassifier(cues),
		engine.NewRouter(cfg.Engine.MaxFanout),
		engine.NewDispatcher(registry, cfg.Engine.CapabilityTimeout),
		engine.NewAggregator(capability.NewSynthesizer(llmClient, cfg.LLM.SynthesisModel)),
		sinks,
		engine.Options{
			OverallDeadline:  cfg.Engine.OverallDeadline,
			FallbackDeadline: cfg.Engine.FallbackDeadline,
		},
	)

	// HTTP surface
	chatHandler := chat.NewHandler(eng, sessions, cfg.Engine.HistoryLimit)

	routerCfg := api.RouterConfig{
		CORSAllowedOrigins: cfg.API.CORSAllowedOrigins,
		APIKey:             cfg.API.Key,
	}
	if cfg.API.RateLimitPerMinute > 0 {
		limiter := mw.NewRateLimiter(redisClient, cfg.API.RateLimitPerMinute, 60)
		routerCfg.ChatRateLimiter = limiter.Middleware
	}

	router := api.NewRouter(pool, redisClient, natsClient, routerCfg, api.HandlerSet{
		Chat:            chatHandler.Chat,
		ClearSession:    chatHandler.ClearSession,
		ChatCompletions: chatHandler.ChatCompletions,
		ListModels:      chatHandler.ListModels,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
