package config

import (
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        App            `mapstructure:"app"`
	Log        Logger         `mapstructure:"logger"`
	DB         Database       `mapstructure:"database"`
	API        API            `mapstructure:"api"`
	AI         AI             `mapstructure:"ai"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
	Intake     Intake         `mapstructure:"intake"`
	Enrichment Enrichment     `mapstructure:"enrichment"`
	Cache      Cache          `mapstructure:"cache"`
	Retention  Retention      `mapstructure:"retention"`
}

type App struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
}

type Database struct {
	Driver          string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port               int     `mapstructure:"port" validate:"gt=0"`
	BodyLimit          string  `mapstructure:"body_limit"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" validate:"gt=0"`
}

// AI configures the language-model provider used to analyze accepted signals.
// An empty APIKey is a valid deployment: every analysis degrades to an error marker.
type AI struct {
	Provider            string        `mapstructure:"provider" validate:"oneof=anthropic gemini"`
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	MaxTokens           int           `mapstructure:"max_tokens" validate:"gt=0"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gt=0"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute" validate:"gt=0"`
}

type TelegramConfig struct {
	Enabled                   bool          `mapstructure:"enabled"`
	APIURL                    string        `mapstructure:"api_url"`
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	AlertChatID               string        `mapstructure:"alert_chat_id"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second" validate:"gt=0"`
}

type Intake struct {
	MinScore           float64 `mapstructure:"min_score"`
	RequireTFAlignment bool    `mapstructure:"require_tf_alignment"`
}

type Enrichment struct {
	Workers   int `mapstructure:"workers" validate:"gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	StatsTTL          time.Duration `mapstructure:"stats_ttl"`
}

type Retention struct {
	Cron   string        `mapstructure:"cron"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// envAliases keeps the variable names used by earlier deployments working.
var envAliases = map[string][]string{
	"ai.api_key":                  {"AI_API_KEY", "ANTHROPIC_API_KEY"},
	"intake.min_score":            {"INTAKE_MIN_SCORE", "SCORE_MINIMO"},
	"intake.require_tf_alignment": {"INTAKE_REQUIRE_TF_ALIGNMENT", "REQUIRE_TF_ALIGNMENT"},
	"api.port":                    {"API_PORT", "PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "apex-hub")
	v.SetDefault("app.version", "2.0.0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "apex.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "apex")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.time_zone", "UTC")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.body_limit", "1M")
	v.SetDefault("api.rate_limit_per_second", 10)
	v.SetDefault("api.rate_limit_burst", 30)

	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max_request_per_minute", 30)
	v.SetDefault("ai.max_token_per_minute", 100000)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_url", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.alert_chat_id", "")
	v.SetDefault("telegram.timeout_duration", 10*time.Second)
	v.SetDefault("telegram.max_global_request_per_second", 20)

	v.SetDefault("intake.min_score", 3)
	v.SetDefault("intake.require_tf_alignment", true)

	v.SetDefault("enrichment.workers", 4)
	v.SetDefault("enrichment.queue_size", 256)

	v.SetDefault("cache.default_expiration", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("cache.stats_ttl", 15*time.Second)

	v.SetDefault("retention.cron", "")
	v.SetDefault("retention.max_age", 90*24*time.Hour)
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Telegram.AlertChatID == "" {
		cfg.Telegram.AlertChatID = cfg.Telegram.ChatID
	}

	if err := goValidator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
