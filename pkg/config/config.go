package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Audit struct {
		SweepIntervalSeconds   int `yaml:"sweep_interval_seconds"`
		DispatchTimeoutSeconds int `yaml:"dispatch_timeout_seconds"`
	} `yaml:"audit"`
	Lifecycle struct {
		MinMarkupPercent float64 `yaml:"min_markup_percent"`
	} `yaml:"lifecycle"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// Thresholds holds the SLA tables for both lifecycles, keyed by status.
type Thresholds struct {
	Orders     map[string]StatusThreshold `yaml:"orders"`
	Components map[string]StatusThreshold `yaml:"components"`
}

// StatusThreshold configures one status. A max_dwell_hours of 0 means the
// status is not monitored.
type StatusThreshold struct {
	MaxDwellHours int      `yaml:"max_dwell_hours"`
	NotifyGroups  []string `yaml:"notify_groups"`
}

var path = "./config.yaml"

// FilePath overrides the default config file location.
func FilePath(filePath string) {
	path = filePath
}

// ParseYAML loads and validates the configuration file.
func ParseYAML() (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot open file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Audit.SweepIntervalSeconds == 0 {
		c.Audit.SweepIntervalSeconds = 60
	}
	if c.Audit.DispatchTimeoutSeconds == 0 {
		c.Audit.DispatchTimeoutSeconds = 10
	}
}

func (c *Config) validate() error {
	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq.host is required")
	}
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		return fmt.Errorf("rabbitmq.port must be between 1 and 65535")
	}
	if c.RabbitMQ.User == "" {
		return fmt.Errorf("rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		return fmt.Errorf("rabbitmq.password is required")
	}

	// Thresholds
	for status, t := range c.Thresholds.Orders {
		if t.MaxDwellHours < 0 {
			return fmt.Errorf("thresholds.orders.%s.max_dwell_hours must not be negative", status)
		}
	}
	for status, t := range c.Thresholds.Components {
		if t.MaxDwellHours < 0 {
			return fmt.Errorf("thresholds.components.%s.max_dwell_hours must not be negative", status)
		}
	}

	return nil
}

// PrintYAMLHelp prints a reference config for operators.
func PrintYAMLHelp() {
	fmt.Printf(`
YAML Config File Help

The configuration file supports four sections: database, rabbitmq, audit and
thresholds.

Example config.yaml:

database:
  host: "localhost"        # Database host
  port: 5432               # Database port (integer 1-65535)
  user: "postgres"         # Database username
  password: "secret"       # Database password
  database: "orderflow"    # Database name
  sslmode: "disable"       # SSL mode: disable/enable

rabbitmq:
  host: "localhost"        # RabbitMQ host
  port: 5672               # RabbitMQ port (integer 1-65535)
  user: "guest"            # RabbitMQ username
  password: "guest"        # RabbitMQ password

audit:
  sweep_interval_seconds: 60    # Interval between scheduled sweeps
  dispatch_timeout_seconds: 10  # Per-notification dispatch timeout

lifecycle:
  min_markup_percent: 10.0      # Line margin below this blocks purchase orders

thresholds:
  orders:
    technical_review:
      max_dwell_hours: 48       # 0 disables monitoring for the status
      notify_groups: ["sales_management"]
  components:
    rfp_sent:
      max_dwell_hours: 72
      notify_groups: ["procurement"]

Rules:
1. Database and rabbitmq sections are required.
2. Threshold entries are optional; a missing status is not monitored.
3. max_dwell_hours must be zero or positive; zero disables monitoring.
`)
}
