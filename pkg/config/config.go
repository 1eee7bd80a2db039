package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Component is one index constituent as configured.
type Component struct {
	Symbol  string  `yaml:"symbol"`
	Name    string  `yaml:"name"`
	Weight  float64 `yaml:"weight"`
	Inverse bool    `yaml:"inverse"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Index struct {
		Components      []Component   `yaml:"components"`
		Schedule        string        `yaml:"schedule"`
		CalcTimeout     time.Duration `yaml:"calc_timeout"`
		HistoryCapacity int           `yaml:"history_capacity"`
	} `yaml:"index"`
	Quotes struct {
		APIKey         string        `yaml:"api_key"`
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Timeout        time.Duration `yaml:"timeout"`
		QuoteMaxAge    time.Duration `yaml:"quote_max_age"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"quotes"`
	Sentiment struct {
		ModelURL     string        `yaml:"model_url"`
		ModelTimeout time.Duration `yaml:"model_timeout"`
		Window       time.Duration `yaml:"window"`
		MaxHeadlines int           `yaml:"max_headlines"`
	} `yaml:"sentiment"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		SnapshotTopic string   `yaml:"snapshot_topic"`
		HeadlineTopic string   `yaml:"headline_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
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

	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("SENTIMENT_MODEL_URL"); v != "" {
		c.Sentiment.ModelURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// InstrumentSymbols returns the configured symbols that need market data,
// skipping the news sentiment pseudo-component.
func (c *Config) InstrumentSymbols() []string {
	out := make([]string, 0, len(c.Index.Components))
	for _, comp := range c.Index.Components {
		if comp.Symbol == "NEWS_SENTIMENT" {
			continue
		}
		out = append(out, comp.Symbol)
	}
	return out
}

// Validate checks if the configuration is valid. Component weights must sum
// to 1 so the index is a convex combination before any renormalization.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Index.Components) == 0 {
		return fmt.Errorf("index.components cannot be empty")
	}

	seen := make(map[string]bool, len(c.Index.Components))
	var sum float64
	for _, comp := range c.Index.Components {
		if comp.Symbol == "" {
			return fmt.Errorf("index component with empty symbol")
		}
		if seen[comp.Symbol] {
			return fmt.Errorf("duplicate index component %q", comp.Symbol)
		}
		seen[comp.Symbol] = true
		if comp.Weight <= 0 {
			return fmt.Errorf("component %q weight must be positive", comp.Symbol)
		}
		sum += comp.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("component weights must sum to 1, got %v", sum)
	}

	if c.Quotes.BaseURL == "" {
		return fmt.Errorf("quotes.base_url is required")
	}
	return nil
}
