package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the playback bot
type Config struct {
	Telegram TelegramConfig
	Owner    OwnerConfig
	Kafka    KafkaConfig
	State    StateConfig
	Database DatabaseConfig
	Playback PlaybackConfig
	Logging  LoggingConfig
	Service  ServiceConfig
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
}

// OwnerConfig identifies the bot owner
type OwnerConfig struct {
	ID int64
}

// KafkaConfig holds Kafka configuration for the streaming engine link
type KafkaConfig struct {
	Brokers               []string
	GroupID               string
	TopicCallCommands     string
	TopicPlaybackFinished string
}

// State backends
const (
	StateBackendFile     = "file"
	StateBackendPostgres = "postgres"
)

// StateConfig selects where persisted documents live
type StateConfig struct {
	// Backend is StateBackendFile or StateBackendPostgres
	Backend       string
	Dir           string
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL configuration for the postgres state backend
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrationsPath string
}

// PlaybackConfig holds playback policy
type PlaybackConfig struct {
	MaxAudioDuration time.Duration
	MaxVideoDuration time.Duration
	ResolveTimeout   time.Duration
	CallTimeout      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
	File  string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config   *Config
	Telegram *TelegramConfig
	Owner    *OwnerConfig
	Kafka    *KafkaConfig
	State    *StateConfig
	Database *DatabaseConfig
	Playback *PlaybackConfig
	Logging  *LoggingConfig
	Service  *ServiceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:   cfg,
		Telegram: &cfg.Telegram,
		Owner:    &cfg.Owner,
		Kafka:    &cfg.Kafka,
		State:    &cfg.State,
		Database: &cfg.Database,
		Playback: &cfg.Playback,
		Logging:  &cfg.Logging,
		Service:  &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	ownerID, err := getEnvInt64("OWNER_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		},
		Owner: OwnerConfig{
			ID: ownerID,
		},
		Kafka: KafkaConfig{
			Brokers:               strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			GroupID:               getEnv("KAFKA_GROUP_ID", "rolavibe-bot"),
			TopicCallCommands:     getEnv("KAFKA_TOPIC_CALL_COMMANDS", "calls.commands"),
			TopicPlaybackFinished: getEnv("KAFKA_TOPIC_PLAYBACK_FINISHED", "calls.playback_finished"),
		},
		State: StateConfig{
			Backend:       getEnv("STATE_BACKEND", StateBackendFile),
			Dir:           getEnv("STATE_DIR", "."),
			FlushInterval: getEnvDuration("STATE_FLUSH_INTERVAL", 120*time.Second),
			FlushTimeout:  getEnvDuration("STATE_FLUSH_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "rolavibe"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "file://migrations"),
		},
		Playback: PlaybackConfig{
			MaxAudioDuration: getEnvDuration("MAX_AUDIO_DURATION", 600*time.Second),
			MaxVideoDuration: getEnvDuration("MAX_VIDEO_DURATION", 10800*time.Second),
			ResolveTimeout:   getEnvDuration("RESOLVE_TIMEOUT", 45*time.Second),
			CallTimeout:      getEnvDuration("CALL_TIMEOUT", 15*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "rolavibe.log"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "rolavibe-bot"),
			Port: getEnv("SERVICE_PORT", "8081"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Owner.ID == 0 {
		return fmt.Errorf("OWNER_ID is required")
	}

	if len(c.Kafka.Brokers) == 0 || c.Kafka.Brokers[0] == "" {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	switch c.State.Backend {
	case StateBackendFile, StateBackendPostgres:
	default:
		return fmt.Errorf("STATE_BACKEND must be \"file\" or \"postgres\", got %q", c.State.Backend)
	}

	if c.State.FlushInterval <= 0 {
		return fmt.Errorf("STATE_FLUSH_INTERVAL must be positive")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
