package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

// Data source kinds accepted in DATA_SOURCE.
const (
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset source.
	DataSource   string
	DataPath     string
	DataBaseURL  string
	SQLitePath   string
	SQLiteTable  string
	FetchTimeout time.Duration

	// Chart rendering.
	ChartWidth         float64
	ChartHeight        float64
	TransitionDuration time.Duration
	SizeScale          string

	// Initial selection for new sessions.
	DefaultX       string
	DefaultY       string
	DefaultSize    string
	DefaultStation string
	DefaultState   string
	DefaultMonth   string

	// API.
	MaxSessions    int
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	// Frame publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaFramesTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	transition, err := parsePositiveDuration("TRANSITION_DURATION", "1s")
	if err != nil {
		return nil, err
	}
	width, err := parsePositiveFloat("CHART_WIDTH", "540")
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("CHART_HEIGHT", "420")
	if err != nil {
		return nil, err
	}
	rps, err := parsePositiveFloat("RATE_LIMIT_RPS", "20")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSource:   strings.ToLower(sharedcfg.EnvOrDefault("DATA_SOURCE", SourceFile)),
		DataPath:     sharedcfg.EnvOrDefault("DATA_PATH", "data/stations.csv"),
		DataBaseURL:  os.Getenv("DATA_BASE_URL"),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", "data/stations.db"),
		SQLiteTable:  sharedcfg.EnvOrDefault("SQLITE_TABLE", "observations"),
		FetchTimeout: fetchTimeout,

		ChartWidth:         width,
		ChartHeight:        height,
		TransitionDuration: transition,
		SizeScale:          strings.ToLower(sharedcfg.EnvOrDefault("SIZE_SCALE", "sqrt")),

		DefaultX:       sharedcfg.EnvOrDefault("DEFAULT_X", "TAVG"),
		DefaultY:       sharedcfg.EnvOrDefault("DEFAULT_Y", "AWND"),
		DefaultSize:    sharedcfg.EnvOrDefault("DEFAULT_SIZE", "WSF5"),
		DefaultStation: sharedcfg.EnvOrDefault("DEFAULT_STATION", "GUAM INTL AP"),
		DefaultState:   sharedcfg.EnvOrDefault("DEFAULT_STATE", "GU"),
		DefaultMonth:   sharedcfg.EnvOrDefault("DEFAULT_MONTH", "1"),

		MaxSessions:    parsePositiveInt("MAX_SESSIONS", 1000),
		RateLimitRPS:   rps,
		RateLimitBurst: parsePositiveInt("RATE_LIMIT_BURST", 40),
		CORSOrigins:    splitList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFramesTopic: sharedcfg.EnvOrDefault("KAFKA_FRAMES_TOPIC", "bubble-chart-frames"),
	}

	switch cfg.DataSource {
	case SourceFile, SourceSQLite:
	case SourceHTTP:
		if cfg.DataBaseURL == "" && !strings.Contains(cfg.DataPath, "://") {
			return nil, errors.New("DATA_SOURCE=http needs DATA_BASE_URL or an absolute DATA_PATH")
		}
	default:
		return nil, fmt.Errorf("invalid DATA_SOURCE %q", cfg.DataSource)
	}
	if cfg.SizeScale != "sqrt" && cfg.SizeScale != "linear" {
		return nil, fmt.Errorf("invalid SIZE_SCALE %q", cfg.SizeScale)
	}
	if _, err := cfg.Selection(); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_* selection: %w", err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaFramesTopic == "" {
			return nil, errors.New("KAFKA_FRAMES_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// Selection builds the initial selection from the DEFAULT_* settings.
func (c *Config) Selection() (domain.Selection, error) {
	var sel domain.Selection
	var err error
	if sel.X, err = domain.ParseVariable(c.DefaultX); err != nil {
		return sel, err
	}
	if sel.Y, err = domain.ParseVariable(c.DefaultY); err != nil {
		return sel, err
	}
	if sel.Size, err = domain.ParseVariable(c.DefaultSize); err != nil {
		return sel, err
	}
	if sel.Month, err = domain.ParseMonth(c.DefaultMonth); err != nil {
		return sel, err
	}
	sel.Station = c.DefaultStation
	sel.State = c.DefaultState
	return sel, sel.Validate()
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
