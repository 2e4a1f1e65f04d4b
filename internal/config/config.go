package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Outreach OutreachConfig `mapstructure:"outreach"`
}

// APIConfig holds HTTP API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SMTPConfig holds outbound SMTP defaults. Credentials are never part of the
// configuration; they are supplied per send run and held only in memory.
type SMTPConfig struct {
	DefaultHost     string            `mapstructure:"default_host"`
	DefaultPort     int               `mapstructure:"default_port"`
	DefaultStartTLS bool              `mapstructure:"default_starttls"`
	DialTimeout     time.Duration     `mapstructure:"dial_timeout"`
	Presets         map[string]Preset `mapstructure:"presets"`
}

// Preset is a named SMTP relay configuration (e.g. "gmail", "outlook") that a
// send request can reference instead of spelling out host and port.
type Preset struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	StartTLS bool   `mapstructure:"starttls"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout or file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// OutreachConfig holds send-loop and storage configuration.
type OutreachConfig struct {
	LogPath          string  `mapstructure:"log_path"`
	DefaultBatchSize int     `mapstructure:"default_batch_size"`
	MaxBatchSize     int     `mapstructure:"max_batch_size"`
	DefaultDelayMin  float64 `mapstructure:"default_delay_min"`
	DefaultDelayMax  float64 `mapstructure:"default_delay_max"`
	MaxUploadBytes   int64   `mapstructure:"max_upload_bytes"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix OUTREACH_ override file values.
// For example, OUTREACH_API_PORT overrides api.port.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "30s")
	// Send runs block the request for the whole batch; zero disables the
	// write timeout so long runs are not cut off mid-batch.
	v.SetDefault("api.write_timeout", "0s")

	v.SetDefault("smtp.default_host", "smtp.gmail.com")
	v.SetDefault("smtp.default_port", 587)
	v.SetDefault("smtp.default_starttls", true)
	v.SetDefault("smtp.dial_timeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "logs/outreach.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_files", 5)

	v.SetDefault("outreach.log_path", "logs/outreach_log.csv")
	v.SetDefault("outreach.default_batch_size", 20)
	v.SetDefault("outreach.max_batch_size", 500)
	v.SetDefault("outreach.default_delay_min", 5)
	v.SetDefault("outreach.default_delay_max", 12)
	v.SetDefault("outreach.max_upload_bytes", 10<<20)
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.SMTP.DefaultPort < 1 || c.SMTP.DefaultPort > 65535 {
		return fmt.Errorf("smtp.default_port must be between 1 and 65535, got %d", c.SMTP.DefaultPort)
	}
	if c.Outreach.MaxBatchSize < 1 {
		return fmt.Errorf("outreach.max_batch_size must be positive, got %d", c.Outreach.MaxBatchSize)
	}
	if c.Outreach.DefaultBatchSize < 1 || c.Outreach.DefaultBatchSize > c.Outreach.MaxBatchSize {
		return fmt.Errorf("outreach.default_batch_size must be between 1 and %d, got %d",
			c.Outreach.MaxBatchSize, c.Outreach.DefaultBatchSize)
	}
	if c.Outreach.DefaultDelayMin < 0 || c.Outreach.DefaultDelayMax < 0 {
		return fmt.Errorf("outreach delay defaults must not be negative")
	}
	if c.Outreach.MaxUploadBytes < 1 {
		return fmt.Errorf("outreach.max_upload_bytes must be positive, got %d", c.Outreach.MaxUploadBytes)
	}
	for name, p := range c.SMTP.Presets {
		if p.Host == "" {
			return fmt.Errorf("smtp.presets.%s.host must not be empty", name)
		}
		if p.Port < 1 || p.Port > 65535 {
			return fmt.Errorf("smtp.presets.%s.port must be between 1 and 65535, got %d", name, p.Port)
		}
	}
	return nil
}
