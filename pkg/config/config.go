package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

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
	Backend struct {
		Type string `yaml:"type"` // csv, clickhouse or kafka
		Dir  string `yaml:"dir"`  // csv backend output directory
	} `yaml:"backend"`
	FRED struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Series  []string      `yaml:"series"`
		Years   int           `yaml:"years"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"fred"`
	Yahoo struct {
		BaseURL  string            `yaml:"base_url"`
		Symbols  map[string]string `yaml:"symbols"` // display name -> ticker
		Range    string            `yaml:"range"`
		Interval string            `yaml:"interval"`
		Timeout  time.Duration     `yaml:"timeout"`
	} `yaml:"yahoo"`
	Cbonds struct {
		BaseURL   string        `yaml:"base_url"`
		Login     string        `yaml:"login"`    // Test/Test is the provider sandbox
		Password  string        `yaml:"password"` // overridden by CBONDS_PASSWORD
		ISINs     []string      `yaml:"isins"`
		Endpoints []string      `yaml:"endpoints"`
		PageSize  int           `yaml:"page_size"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"cbonds"`
	Pulse struct {
		Dir     string `yaml:"dir"`
		Variant string `yaml:"variant"` // sqft or sqm source schema
	} `yaml:"pulse"`
	Portfolio struct {
		Path string `yaml:"path"`
	} `yaml:"portfolio"`
	Cache struct {
		TTL struct {
			Series   time.Duration `yaml:"series"`
			Records  time.Duration `yaml:"records"`
			Snapshot time.Duration `yaml:"snapshot"`
		} `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
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
// Credentials never live in the YAML for real deployments; the env always wins.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.FRED.APIKey = v
	}
	if v := os.Getenv("CBONDS_LOGIN"); v != "" {
		c.Cbonds.Login = v
	}
	if v := os.Getenv("CBONDS_PASSWORD"); v != "" {
		c.Cbonds.Password = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("PULSE_DIR"); v != "" {
		c.Pulse.Dir = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Validate checks the configuration before any network I/O is attempted.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "csv", "clickhouse", "kafka":
	default:
		return fmt.Errorf("backend.type must be 'csv', 'clickhouse' or 'kafka', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "csv" && c.Backend.Dir == "" {
		return fmt.Errorf("backend.dir is required for the csv backend")
	}
	if c.FRED.APIKey == "" {
		return fmt.Errorf("fred.api_key is required (export FRED_API_KEY)")
	}
	// FRED keys are fixed-width lowercase hex; catch truncated keys before the first request.
	if len(c.FRED.APIKey) != 32 {
		return fmt.Errorf("fred.api_key must be 32 characters, got %d", len(c.FRED.APIKey))
	}
	if len(c.FRED.Series) == 0 {
		return fmt.Errorf("fred.series cannot be empty")
	}
	if len(c.Yahoo.Symbols) == 0 {
		return fmt.Errorf("yahoo.symbols cannot be empty")
	}
	if c.Cbonds.Login == "" || c.Cbonds.Password == "" {
		return fmt.Errorf("cbonds credentials are required (Test/Test selects the sandbox)")
	}
	if c.Pulse.Variant != "" && c.Pulse.Variant != "sqft" && c.Pulse.Variant != "sqm" {
		return fmt.Errorf("pulse.variant must be 'sqft' or 'sqm', got '%s'", c.Pulse.Variant)
	}
	if c.Portfolio.Path == "" {
		return fmt.Errorf("portfolio.path is required")
	}
	return nil
}
