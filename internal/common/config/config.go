// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Session       SessionConfig      `mapstructure:"session"`
	Agents        AgentsConfig       `mapstructure:"agents"`
	Reports       ReportsConfig      `mapstructure:"reports"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the host:port pair the HTTP listener binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	SeedCSV        string `mapstructure:"seed_csv"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls conversation session storage.
type SessionConfig struct {
	Backend      string `mapstructure:"backend"` // memory | redis
	TTL          int    `mapstructure:"ttl"`     // seconds, redis backend only
	HistoryLimit int    `mapstructure:"history_limit"`
}

// --- Agent Configuration Sections ---

type AgentsConfig struct {
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Slotfill   SlotfillConfig   `mapstructure:"slotfill"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
}

// ClassifierConfig tunes intent classification.
type ClassifierConfig struct {
	AmbiguityThreshold  float64 `mapstructure:"ambiguity_threshold"`
	ContextBoost        float64 `mapstructure:"context_boost"`
	ShortAnswerMaxWords int     `mapstructure:"short_answer_max_words"`
}

type SlotfillConfig struct {
	WarrantyWindowDays int `mapstructure:"warranty_window_days"`
}

type RetrievalConfig struct {
	TopK        int `mapstructure:"top_k"`
	CorpusLimit int `mapstructure:"corpus_limit"`
}

type AnalyticsConfig struct {
	DefaultWindowDays int `mapstructure:"default_window_days"`
	CountWindowDays   int `mapstructure:"count_window_days"`
}

// ReportsConfig holds settings for Excel report generation.
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	MaxAge    int    `mapstructure:"max_age"` // seconds before generated files are swept
}

// NotificationConfig holds settings for return confirmation delivery.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
