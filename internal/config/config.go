package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	NATS   NATSConfig
	LLM    LLMConfig
	Engine EngineConfig
	API    APIConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

// LLMConfig selects a model per capability, mirroring the per-agent model
// settings of the assistant this service grew out of.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	KnowledgeModel string
	CardModel      string
	SynthesisModel string
	EmbeddingModel string
}

// EngineConfig carries the pipeline's latency and fan-out budgets.
type EngineConfig struct {
	CapabilityTimeout time.Duration
	OverallDeadline   time.Duration
	FallbackDeadline  time.Duration
	MaxFanout         int
	HistoryLimit      int
	CuesFile          string
}

type APIConfig struct {
	Key                string // static bearer key; empty disables auth
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL:     k.String("nats.url"),
			Enabled: k.Bool("nats.enabled"),
		},
		LLM: LLMConfig{
			APIKey:         k.String("llm.api.key"),
			BaseURL:        k.String("llm.base.url"),
			ChatModel:      k.String("llm.chat.model"),
			KnowledgeModel: k.String("llm.knowledge.model"),
			CardModel:      k.String("llm.card.model"),
			SynthesisModel: k.String("llm.synthesis.model"),
			EmbeddingModel: k.String("llm.embedding.model"),
		},
		Engine: EngineConfig{
			MaxFanout:    k.Int("engine.max.fanout"),
			HistoryLimit: k.Int("engine.history.limit"),
			CuesFile:     k.String("engine.cues.file"),
		},
		API: APIConfig{
			Key:                k.String("api.key"),
			CORSAllowedOrigins: k.Strings("api.cors.origins"),
			RateLimitPerMinute: k.Int("api.ratelimit.per.minute"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "loqui"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "loqui"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.LLM.ChatModel == "" {
		cfg.LLM.ChatModel = "gpt-4o-mini"
	}
	if cfg.LLM.KnowledgeModel == "" {
		cfg.LLM.KnowledgeModel = "gpt-4o-mini"
	}
	if cfg.LLM.CardModel == "" {
		cfg.LLM.CardModel = "gpt-4o"
	}
	if cfg.LLM.SynthesisModel == "" {
		cfg.LLM.SynthesisModel = "gpt-4o-mini"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.Engine.MaxFanout == 0 {
		cfg.Engine.MaxFanout = 3
	}
	if cfg.Engine.HistoryLimit == 0 {
		cfg.Engine.HistoryLimit = 10
	}
	if cfg.API.RateLimitPerMinute == 0 {
		cfg.API.RateLimitPerMinute = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	cfg.Engine.CapabilityTimeout, err = parseDuration(k, "engine.capability.timeout", "8s")
	if err != nil {
		return nil, err
	}
	cfg.Engine.OverallDeadline, err = parseDuration(k, "engine.overall.deadline", "15s")
	if err != nil {
		return nil, err
	}
	cfg.Engine.FallbackDeadline, err = parseDuration(k, "engine.fallback.deadline", "5s")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(k *koanf.Koanf, key, fallback string) (time.Duration, error) {
	raw := k.String(key)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
