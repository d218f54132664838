package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Logging struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic"`
			Interval       time.Duration `yaml:"interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"collect"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled"`
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"metrics"`
	Data struct {
		// Source is one of csv, clickhouse, postgres, sqlite.
		Source    string `yaml:"source"`
		Path      string `yaml:"path"`
		Delimiter string `yaml:"delimiter"`
		Table     string `yaml:"table"`
	} `yaml:"data"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Predictors struct {
		ModelDir string `yaml:"model_dir"`
	} `yaml:"predictors"`
	Prediction struct {
		// FailurePolicy is isolate (default) or abort.
		FailurePolicy string        `yaml:"failure_policy"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"prediction"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Scheduler struct {
		Enabled     bool          `yaml:"enabled"`
		Spec        string        `yaml:"spec"`
		Watchlist   []string      `yaml:"watchlist"`
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
		RunOnStart  bool          `yaml:"run_on_start"`
	} `yaml:"scheduler"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads config from YAML, applies .env and environment overrides, then validates.
func LoadWithEnv(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	c, err := read(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.Data.Source = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Predictors.ModelDir = v
	}
	if v := os.Getenv("FAILURE_POLICY"); v != "" {
		c.Prediction.FailurePolicy = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Scheduler.Watchlist = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Data.Source == "" {
		c.Data.Source = "csv"
	}
	if c.Data.Table == "" {
		c.Data.Table = "raw_prices"
	}
	if c.Prediction.FailurePolicy == "" {
		c.Prediction.FailurePolicy = "isolate"
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = "0 30 18 * * 1-5"
	}
	if c.Scheduler.SnapshotTTL == 0 {
		c.Scheduler.SnapshotTTL = 24 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "nextclose.forecasts"
	}
	if c.Logging.Collect.Topic == "" {
		c.Logging.Collect.Topic = "nextclose.logs"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Data.Source {
	case "csv":
		if c.Data.Path == "" {
			return fmt.Errorf("data.path is required for the csv source")
		}
		if len([]rune(c.Data.Delimiter)) > 1 {
			return fmt.Errorf("data.delimiter must be a single character, got %q", c.Data.Delimiter)
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse source")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres source")
		}
	case "sqlite":
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite source")
		}
	default:
		return fmt.Errorf("data.source must be one of csv, clickhouse, postgres, sqlite, got '%s'", c.Data.Source)
	}
	if c.Predictors.ModelDir == "" {
		return fmt.Errorf("predictors.model_dir is required")
	}
	if p := c.Prediction.FailurePolicy; p != "isolate" && p != "abort" {
		return fmt.Errorf("prediction.failure_policy must be 'isolate' or 'abort', got '%s'", p)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.Collect.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("logging.collect requires kafka")
	}
	if c.Scheduler.Enabled && len(c.Scheduler.Watchlist) == 0 {
		return fmt.Errorf("scheduler.watchlist cannot be empty when the scheduler is enabled")
	}
	if c.RateLimit.Capacity < 0 || c.RateLimit.RefillPerSec < 0 {
		return fmt.Errorf("ratelimit values must not be negative")
	}
	return nil
}

// Delimiter returns the CSV field separator.
func (c *Config) Delimiter() rune {
	if c.Data.Delimiter == "" {
		return ','
	}
	return []rune(c.Data.Delimiter)[0]
}
