package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"FinSight/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. FINSIGHT_KAFKA_BROKERS.
const EnvPrefix = "FINSIGHT"

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"5s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Disabled bool   `yaml:"disabled"`
		Path     string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Storage struct {
		Backend    string `yaml:"backend" default:"clickhouse"`
		InitSchema bool   `yaml:"init_schema"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finsight"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns" default:"10"`
	} `yaml:"postgres"`
	Kafka struct {
		Brokers []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
		Topics  struct {
			Filings        string `yaml:"filings" default:"filings"`
			ReportRequests string `yaml:"report_requests" default:"report-requests"`
			Outcomes       string `yaml:"outcomes" default:"filing-outcomes"`
			Reports        string `yaml:"reports" default:"sentiment-reports"`
			Sentiment      string `yaml:"sentiment" default:"daily-sentiment"`
		} `yaml:"topics"`
		Producer struct {
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"finsight"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"finsight-dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"52428800"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Parser    ParserConfig    `yaml:"parser"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ParserConfig tunes filing parsing. Empty pattern and namespace settings mean built-in defaults.
type ParserConfig struct {
	SectionPatterns   []SectionPattern  `yaml:"section_patterns"`
	InstanceNamespace string            `yaml:"instance_namespace"`
	Taxonomies        map[string]string `yaml:"taxonomies"`
	Workers           int               `yaml:"workers"`
	MaxDocumentBytes  int               `yaml:"max_document_bytes" default:"52428800"`
}

type SectionPattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type AnalyticsConfig struct {
	TrendDays          int           `yaml:"trend_days" default:"30"`
	AnomalyDays        int           `yaml:"anomaly_days" default:"90"`
	Window             int           `yaml:"window" default:"14"`
	Threshold          float64       `yaml:"threshold" default:"2.0"`
	DaysBefore         int           `yaml:"days_before" default:"7"`
	DaysAfter          int           `yaml:"days_after" default:"7"`
	SentimentThreshold float64       `yaml:"sentiment_threshold" default:"0.2"`
	CacheTTL           time.Duration `yaml:"cache_ttl" default:"10m"`
	Timeout            time.Duration `yaml:"timeout" default:"30s"`
	// ReportInterval is the minimum spacing between recomputed reports per company; 0 disables it.
	ReportInterval time.Duration `yaml:"report_interval" default:"1m"`
	ReportBurst    int           `yaml:"report_burst" default:"3"`
}

// envOverrides lists the settings that may come from the environment. Kept apart from
// Config so envconfig never sees the default tags and cannot clobber YAML values.
type envOverrides struct {
	Environment       string   `envconfig:"ENVIRONMENT"`
	LogLevel          string   `envconfig:"LOG_LEVEL"`
	ServerPort        int      `envconfig:"SERVER_PORT"`
	StorageBackend    string   `envconfig:"STORAGE_BACKEND"`
	ClickHouseHost    string   `envconfig:"CLICKHOUSE_HOST"`
	ClickHousePass    string   `envconfig:"CLICKHOUSE_PASSWORD"`
	PostgresDSN       string   `envconfig:"POSTGRES_DSN"`
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID      string   `envconfig:"KAFKA_GROUP_ID"`
	RedisEnabled      *bool    `envconfig:"REDIS_ENABLED"`
	RedisAddr         string   `envconfig:"REDIS_ADDR"`
	RedisPassword     string   `envconfig:"REDIS_PASSWORD"`
	ParserWorkers     int      `envconfig:"PARSER_WORKERS"`
	AnalyticsCacheTTL string   `envconfig:"ANALYTICS_CACHE_TTL"`
}

// Load reads a YAML file, fills defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv is Load plus an optional .env file and FINSIGHT_* overrides.
// An empty path skips the YAML file and starts from defaults.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var raw []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		raw = b
	}
	c, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := c.apply(env); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(b []byte) (*Config, error) {
	var c Config
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

func (c *Config) apply(env envOverrides) error {
	if env.Environment != "" {
		c.Environment = env.Environment
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.ServerPort != 0 {
		c.Server.Port = env.ServerPort
	}
	if env.StorageBackend != "" {
		c.Storage.Backend = env.StorageBackend
	}
	if env.ClickHouseHost != "" {
		c.ClickHouse.Host = env.ClickHouseHost
	}
	if env.ClickHousePass != "" {
		c.ClickHouse.Password = env.ClickHousePass
	}
	if env.PostgresDSN != "" {
		c.Postgres.DSN = env.PostgresDSN
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	if env.KafkaGroupID != "" {
		c.Kafka.Consumer.GroupID = env.KafkaGroupID
	}
	if env.RedisEnabled != nil {
		c.Redis.Enabled = *env.RedisEnabled
	}
	if env.RedisAddr != "" {
		c.Redis.Addr = env.RedisAddr
	}
	if env.RedisPassword != "" {
		c.Redis.Password = env.RedisPassword
	}
	if env.ParserWorkers != 0 {
		c.Parser.Workers = env.ParserWorkers
	}
	if env.AnalyticsCacheTTL != "" {
		d, err := time.ParseDuration(env.AnalyticsCacheTTL)
		if err != nil {
			return fmt.Errorf("env overrides: %s_ANALYTICS_CACHE_TTL: %w", EnvPrefix, err)
		}
		c.Analytics.CacheTTL = d
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.Backend {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be 'clickhouse' or 'postgres', got '%s'", c.Storage.Backend)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	t := c.Kafka.Topics
	if t.Filings == "" || t.ReportRequests == "" || t.Sentiment == "" || t.Outcomes == "" || t.Reports == "" {
		return fmt.Errorf("kafka.topics: filings, report_requests, sentiment, outcomes and reports are all required")
	}
	if t.Filings == t.ReportRequests || t.Filings == t.Sentiment || t.ReportRequests == t.Sentiment {
		return fmt.Errorf("kafka.topics: intake topics filings, report_requests and sentiment must differ")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	for i, p := range c.Parser.SectionPatterns {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Pattern) == "" {
			return fmt.Errorf("parser.section_patterns[%d]: name and pattern are required", i)
		}
	}
	if c.Parser.MaxDocumentBytes < 0 {
		return fmt.Errorf("parser.max_document_bytes cannot be negative")
	}
	a := c.Analytics
	if a.Window < 1 {
		return fmt.Errorf("analytics.window must be >= 1, got %d", a.Window)
	}
	if a.Threshold <= 0 {
		return fmt.Errorf("analytics.threshold must be > 0, got %v", a.Threshold)
	}
	if a.TrendDays < 1 || a.AnomalyDays < 1 {
		return fmt.Errorf("analytics.trend_days and analytics.anomaly_days must be >= 1")
	}
	if a.DaysBefore < 0 || a.DaysAfter < 0 {
		return fmt.Errorf("analytics.days_before and analytics.days_after cannot be negative")
	}
	if a.SentimentThreshold < 0 || a.SentimentThreshold > 1 {
		return fmt.Errorf("analytics.sentiment_threshold must be within [0, 1], got %v", a.SentimentThreshold)
	}
	return nil
}
