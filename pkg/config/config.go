package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	applogger "PumpScan/pkg/logger"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Logging     applogger.Config `yaml:"logging"`
	Metrics     struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type" default:"none"` // kafka, clickhouse or none
	} `yaml:"backend"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Queue      QueueConfig      `yaml:"queue"`
	Sources    SourcesConfig    `yaml:"sources"`
	Detection  DetectionConfig  `yaml:"detection"`
	LLM        LLMConfig        `yaml:"llm"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Alerts     AlertsConfig     `yaml:"alerts"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"5m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	// POST /api/scans token bucket per client
	ScanBurst     int     `yaml:"scan_burst" default:"3"`
	ScanPerMinute float64 `yaml:"scan_per_minute" default:"2"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	Topic        string   `yaml:"topic" default:"pumpscan.reports"`
	LogTopic     string   `yaml:"log_topic" default:"pumpscan.logs"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"10"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		// local brokers only
		AutoCreateTopics bool `yaml:"auto_create_topics"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled    bool          `yaml:"enabled"`
		GroupID    string        `yaml:"group_id" default:"pumpscan-history"`
		Workers    int           `yaml:"workers" default:"2"`
		BufferSize int           `yaml:"buffer_size" default:"64"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"pumpscan.reports.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
	LogCollector struct {
		Enabled        bool          `yaml:"enabled"`
		Interval       time.Duration `yaml:"interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100"`
	} `yaml:"log_collector"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"pumpscan"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" default:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"4"`
	MaxIdleConns     int           `yaml:"max_idle_conns" default:"2"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime" default:"5m"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"pumpscan"`
	// zero keeps the client defaults
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	PoolTimeout  time.Duration `yaml:"pool_timeout"`
}

type CacheConfig struct {
	MemoryMaxSize int           `yaml:"memory_max_size" default:"256"`
	MemoryCleanup time.Duration `yaml:"memory_cleanup" default:"5m"`
	ReportTTL     time.Duration `yaml:"report_ttl" default:"24h"`
	LockTTL       time.Duration `yaml:"lock_ttl" default:"25m"`
}

type QueueConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name" default:"scans"`
	// false runs this replica as a producer only
	Consume       bool          `yaml:"consume" default:"true"`
	Workers       int           `yaml:"workers" default:"1"`
	MaxRetries    int           `yaml:"max_retries" default:"2"`
	RetryDelay    time.Duration `yaml:"retry_delay" default:"1m"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" default:"10m"`
	PollTimeout   time.Duration `yaml:"poll_timeout" default:"5s"`
	JobTimeout    time.Duration `yaml:"job_timeout" default:"20m"`
}

// Bounds for the fetch pool.
const (
	MinSourceWorkers = 5
	MaxSourceWorkers = 8
	MinSourceTimeout = 30 * time.Second
	MaxSourceTimeout = 60 * time.Second
)

type SourcesConfig struct {
	Workers   int           `yaml:"workers" default:"6"`
	Timeout   time.Duration `yaml:"timeout" default:"45s"`
	UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (X11; Linux x86_64) PumpScan/1.0"`
	// per platform request pacing
	RatePerSecond float64 `yaml:"rate_per_second" default:"2"`
	RateBurst     int     `yaml:"rate_burst" default:"1"`

	Reddit struct {
		Enabled         bool     `yaml:"enabled" default:"true"`
		BaseURL         string   `yaml:"base_url" default:"https://www.reddit.com"`
		Subreddits      []string `yaml:"subreddits"`
		MajorSubreddits []string `yaml:"major_subreddits"`
		HotLimit        int      `yaml:"hot_limit" default:"25"`
		MajorHotLimit   int      `yaml:"major_hot_limit" default:"50"`
		RisingLimit     int      `yaml:"rising_limit" default:"25"`
	} `yaml:"reddit"`
	StockTwits struct {
		Enabled      bool   `yaml:"enabled" default:"true"`
		BaseURL      string `yaml:"base_url" default:"https://api.stocktwits.com/api/2"`
		TopSymbols   int    `yaml:"top_symbols" default:"10"`
		MessageLimit int    `yaml:"message_limit" default:"30"`
	} `yaml:"stocktwits"`
	FourChan struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		BaseURL string `yaml:"base_url" default:"https://a.4cdn.org"`
		Board   string `yaml:"board" default:"biz"`
	} `yaml:"fourchan"`
	BitcoinTalk struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		BaseURL string `yaml:"base_url" default:"https://bitcointalk.org"`
		Boards  []int  `yaml:"boards" default:"[159,67,57,238,240]"`
		Pages   int    `yaml:"pages" default:"1"`
	} `yaml:"bitcointalk"`
}

// KeywordTable is one tag and the substrings that trigger it.
type KeywordTable struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// DetectionConfig overrides the built-in vocabulary and thresholds.
// Empty tables and zero numbers keep the built-in values.
type DetectionConfig struct {
	Themes              []KeywordTable `yaml:"themes"`
	Sectors             []KeywordTable `yaml:"sectors"`
	PostMomentumFloor   float64        `yaml:"post_momentum_floor"`
	BurstWindow         time.Duration  `yaml:"burst_window"`
	BurstMinMessages    int            `yaml:"burst_min_messages"`
	ThreadMinReplies    int            `yaml:"thread_min_replies"`
	MinClusterSize      int            `yaml:"min_cluster_size"`
	CoordinationSpan    int            `yaml:"coordination_span"`
	VolumeSpikeMomentum float64        `yaml:"volume_spike_momentum"`
	HighRiskPatterns    int            `yaml:"high_risk_patterns"`
	ElevatedClusters    int            `yaml:"elevated_clusters"`
}

type LLMConfig struct {
	Enabled    bool          `yaml:"enabled" default:"true"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model" default:"claude-sonnet-4-5"`
	AnalyzeTop int           `yaml:"analyze_top" default:"5"`
	Timeout    time.Duration `yaml:"timeout" default:"60s"`
	MaxRetries int           `yaml:"max_retries" default:"2"`
}

type MonitorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Schedule  string `yaml:"schedule" default:"@every 30m"`
	RunOnBoot bool   `yaml:"run_on_boot" default:"true"`
	ReportDir string `yaml:"report_dir" default:"reports"`
}

type AlertsConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	Keep    int  `yaml:"keep" default:"200"`
}

// Load reads a YAML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML bytes over them and validates.
// Defaults go first so an explicit `false` in the file is not overwritten.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("MONITOR_SCHEDULE"); v != "" {
		c.Monitor.Schedule = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "none":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with the kafka backend")
	}
	if c.Kafka.Consumer.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when the consumer is enabled")
	}
	if c.Sources.Workers < MinSourceWorkers || c.Sources.Workers > MaxSourceWorkers {
		return fmt.Errorf("sources.workers must be between %d and %d, got %d",
			MinSourceWorkers, MaxSourceWorkers, c.Sources.Workers)
	}
	if c.Sources.Timeout < MinSourceTimeout || c.Sources.Timeout > MaxSourceTimeout {
		return fmt.Errorf("sources.timeout must be between %s and %s, got %s",
			MinSourceTimeout, MaxSourceTimeout, c.Sources.Timeout)
	}
	if c.LLM.AnalyzeTop < 0 {
		return fmt.Errorf("llm.analyze_top cannot be negative")
	}
	if c.Monitor.Enabled && c.Monitor.Schedule == "" {
		return fmt.Errorf("monitor.schedule is required when the monitor is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis.enabled")
	}
	return nil
}
