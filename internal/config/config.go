package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. EWS_SERVER_PORT
const EnvPrefix = "EWS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Model     ModelConfig     `yaml:"model" envconfig:"MODEL"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains request throttling configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/ews.log"`
}

// PathsConfig contains file system layout configuration. Relative
// directories are resolved against BaseDir.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"data/exports"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	ModelsDir  string `yaml:"models_dir" envconfig:"MODELS_DIR" default:"models"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig contains defaults for the export pipeline
type PipelineConfig struct {
	Years         string `yaml:"years" envconfig:"YEARS" default:"2017-2019"`
	LevelFilter   string `yaml:"level_filter" envconfig:"LEVEL_FILTER" default:"All"`
	TextSeparator string `yaml:"text_separator" envconfig:"TEXT_SEPARATOR" default:"tab"`
	Workers       int    `yaml:"workers" envconfig:"WORKERS" default:"4"`
}

// Separator returns the text export field separator. "tab" and "comma"
// are accepted as names.
func (p PipelineConfig) Separator() rune {
	switch p.TextSeparator {
	case "", "tab", `\t`:
		return '\t'
	case "comma":
		return ','
	}
	return []rune(p.TextSeparator)[0]
}

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Driver  string `yaml:"driver" envconfig:"DRIVER" default:"sqlite"`
	DSN     string `yaml:"dsn" envconfig:"DSN" default:"data/ews.db"`
}

// ModelConfig describes the external classifier
type ModelConfig struct {
	URL          string        `yaml:"url" envconfig:"URL" default:"http://localhost:8501"`
	FeaturesFile string        `yaml:"features_file" envconfig:"FEATURES_FILE" default:"models/feature_order.yaml"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	RPS          float64       `yaml:"rps" envconfig:"RPS" default:"20"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// Load reads .env (when present), environment variables and the first
// config file found in the usual locations. Environment wins over file.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := *Default()
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// envconfig applies defaults to unset fields, so only variables that
	// are actually present may override the file
	var env Config
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg = mergeEnv(cfg, env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// mergeEnv copies the env values whose variables are set onto base
func mergeEnv(base, env Config) Config {
	set := func(name string) bool {
		_, ok := os.LookupEnv(EnvPrefix + "_" + name)
		return ok
	}

	if set("SERVER_PORT") {
		base.Server.Port = env.Server.Port
	}
	if set("SERVER_READ_TIMEOUT") {
		base.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if set("SERVER_WRITE_TIMEOUT") {
		base.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if set("SERVER_SHUTDOWN_TIMEOUT") {
		base.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if set("SERVER_MAX_UPLOAD_BYTES") {
		base.Server.MaxUploadBytes = env.Server.MaxUploadBytes
	}
	if set("SECURITY_RATE_LIMIT_ENABLED") {
		base.Security.RateLimit.Enabled = env.Security.RateLimit.Enabled
	}
	if set("SECURITY_RATE_LIMIT_RPS") {
		base.Security.RateLimit.RPS = env.Security.RateLimit.RPS
	}
	if set("SECURITY_RATE_LIMIT_BURST") {
		base.Security.RateLimit.Burst = env.Security.RateLimit.Burst
	}
	if set("LOGGING_LEVEL") {
		base.Logging.Level = env.Logging.Level
	}
	if set("LOGGING_OUTPUT") {
		base.Logging.Output = env.Logging.Output
	}
	if set("LOGGING_FILE_PATH") {
		base.Logging.FilePath = env.Logging.FilePath
	}
	if set("PATHS_BASE_DIR") {
		base.Paths.BaseDir = env.Paths.BaseDir
	}
	if set("PATHS_EXPORTS_DIR") {
		base.Paths.ExportsDir = env.Paths.ExportsDir
	}
	if set("PATHS_REPORTS_DIR") {
		base.Paths.ReportsDir = env.Paths.ReportsDir
	}
	if set("PIPELINE_YEARS") {
		base.Pipeline.Years = env.Pipeline.Years
	}
	if set("PIPELINE_LEVEL_FILTER") {
		base.Pipeline.LevelFilter = env.Pipeline.LevelFilter
	}
	if set("PIPELINE_TEXT_SEPARATOR") {
		base.Pipeline.TextSeparator = env.Pipeline.TextSeparator
	}
	if set("PIPELINE_WORKERS") {
		base.Pipeline.Workers = env.Pipeline.Workers
	}
	if set("STORE_ENABLED") {
		base.Store.Enabled = env.Store.Enabled
	}
	if set("STORE_DRIVER") {
		base.Store.Driver = env.Store.Driver
	}
	if set("STORE_DSN") {
		base.Store.DSN = env.Store.DSN
	}
	if set("MODEL_URL") {
		base.Model.URL = env.Model.URL
	}
	if set("MODEL_FEATURES_FILE") {
		base.Model.FeaturesFile = env.Model.FeaturesFile
	}
	if set("MODEL_TIMEOUT") {
		base.Model.Timeout = env.Model.Timeout
	}
	if set("MODEL_RPS") {
		base.Model.RPS = env.Model.RPS
	}
	if set("TELEMETRY_TRACE_EXPORTER") {
		base.Telemetry.TraceExporter = env.Telemetry.TraceExporter
	}
	if set("TELEMETRY_ENABLE_METRICS") {
		base.Telemetry.EnableMetrics = env.Telemetry.EnableMetrics
	}
	if set("TELEMETRY_ENVIRONMENT") {
		base.Telemetry.Environment = env.Telemetry.Environment
	}
	return base
}

// Validate validates the configuration and fills derived defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model timeout must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 1
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/ews.log"
	}
	return nil
}

// getConfigFilePath returns the first config file present, or ""
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxUploadBytes:  32 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{Enabled: true, RPS: 100, Burst: 50},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/ews.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ExportsDir: "data/exports",
			ReportsDir: "data/reports",
			ModelsDir:  "models",
			LogsDir:    "logs",
		},
		Pipeline: PipelineConfig{
			Years:         "2017-2019",
			LevelFilter:   "All",
			TextSeparator: "tab",
			Workers:       4,
		},
		Store: StoreConfig{Enabled: true, Driver: DriverSQLite, DSN: "data/ews.db"},
		Model: ModelConfig{
			URL:          "http://localhost:8501",
			FeaturesFile: "models/feature_order.yaml",
			Timeout:      10 * time.Second,
			RPS:          20,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			EnableMetrics: true,
			SampleRatio:   1.0,
			Environment:   "development",
		},
	}
}
