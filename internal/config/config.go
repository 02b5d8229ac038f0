package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// LOCATOR_STORAGE_DSN for storage.dsn.
const EnvPrefix = "LOCATOR"

type Config struct {
	Storage   Storage   `mapstructure:"storage"   yaml:"storage"`
	Telemetry Telemetry `mapstructure:"telemetry" yaml:"telemetry"`
	Healing   Healing   `mapstructure:"healing"   yaml:"healing"`
	Extract   Extract   `mapstructure:"extract"   yaml:"extract"`
	Web       Web       `mapstructure:"web"       yaml:"web"`
	Desktop   Desktop   `mapstructure:"desktop"   yaml:"desktop"`
	Log       Log       `mapstructure:"log"       yaml:"log"`
}

type Storage struct {
	Driver       string `mapstructure:"driver"         yaml:"driver"`
	DSN          string `mapstructure:"dsn"            yaml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
}

type Telemetry struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // memory, store or redis
	Redis   Redis  `mapstructure:"redis"   yaml:"redis"`
	Kafka   Kafka  `mapstructure:"kafka"   yaml:"kafka"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"     yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db"       yaml:"db"`
	Key      string `mapstructure:"key"      yaml:"key"`
}

// Kafka publishing is enabled when Brokers is non-empty.
type Kafka struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic"   yaml:"topic"`
}

type Healing struct {
	Enabled      bool          `mapstructure:"enabled"       yaml:"enabled"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	MinFrequency int           `mapstructure:"min_frequency" yaml:"min_frequency"`
	Parallelism  int           `mapstructure:"parallelism"   yaml:"parallelism"`
}

type Extract struct {
	TextMaxLength   int               `mapstructure:"text_max_length"  yaml:"text_max_length"`
	MaxClasses      int               `mapstructure:"max_classes"      yaml:"max_classes"`
	MaxDepth        int               `mapstructure:"max_depth"        yaml:"max_depth"`
	DynamicPrefixes []string          `mapstructure:"dynamic_prefixes" yaml:"dynamic_prefixes"`
	Reliability     []ReliabilityRule `mapstructure:"reliability"      yaml:"reliability,omitempty"`
}

// ReliabilityRule overrides one row of the extraction reliability table.
// The list order is the extraction order.
type ReliabilityRule struct {
	Kind        string `mapstructure:"kind"        yaml:"kind"`
	Reliability int    `mapstructure:"reliability" yaml:"reliability"`
}

type Web struct {
	ControlURL string `mapstructure:"control_url" yaml:"control_url"`
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
}

type Desktop struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type Log struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "locators.db")
	v.SetDefault("storage.max_open_conns", 10)

	v.SetDefault("telemetry.backend", "store")
	v.SetDefault("telemetry.redis.addr", "localhost:6379")
	v.SetDefault("telemetry.redis.password", "")
	v.SetDefault("telemetry.redis.db", 0)
	v.SetDefault("telemetry.redis.key", "locator:healing_events")
	v.SetDefault("telemetry.kafka.brokers", []string{})
	v.SetDefault("telemetry.kafka.topic", "locator.healing-events")

	v.SetDefault("healing.enabled", true)
	v.SetDefault("healing.query_timeout", 2*time.Second)
	v.SetDefault("healing.min_frequency", 2)
	v.SetDefault("healing.parallelism", 4)

	v.SetDefault("extract.text_max_length", 50)
	v.SetDefault("extract.max_classes", 2)
	v.SetDefault("extract.max_depth", 32)
	v.SetDefault("extract.dynamic_prefixes", []string{})

	v.SetDefault("web.control_url", "")
	v.SetDefault("web.headless", true)

	v.SetDefault("desktop.cache_ttl", 500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path, or from the first locator.yaml found
// in the working directory or ~/.config/locator-cli when path is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("locator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "locator-cli"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv substitutes ${VAR} references in string settings that commonly
// carry secrets or host names.
func (c *Config) expandEnv() {
	c.Storage.DSN = os.ExpandEnv(c.Storage.DSN)
	c.Telemetry.Redis.Addr = os.ExpandEnv(c.Telemetry.Redis.Addr)
	c.Telemetry.Redis.Password = os.ExpandEnv(c.Telemetry.Redis.Password)
	for i, b := range c.Telemetry.Kafka.Brokers {
		c.Telemetry.Kafka.Brokers[i] = os.ExpandEnv(b)
	}
	c.Web.ControlURL = os.ExpandEnv(c.Web.ControlURL)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (expected sqlite, postgres, or mysql)", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn: must not be empty")
	}
	switch c.Telemetry.Backend {
	case "memory", "store", "redis":
	default:
		return fmt.Errorf("telemetry.backend: unknown backend %q (expected memory, store, or redis)", c.Telemetry.Backend)
	}
	if len(c.Telemetry.Kafka.Brokers) > 0 && c.Telemetry.Kafka.Topic == "" {
		return fmt.Errorf("telemetry.kafka.topic: required when brokers are set")
	}
	if c.Healing.QueryTimeout <= 0 {
		return fmt.Errorf("healing.query_timeout: must be positive, got %s", c.Healing.QueryTimeout)
	}
	if c.Healing.MinFrequency < 1 {
		return fmt.Errorf("healing.min_frequency: must be at least 1, got %d", c.Healing.MinFrequency)
	}
	if c.Healing.Parallelism < 1 {
		return fmt.Errorf("healing.parallelism: must be at least 1, got %d", c.Healing.Parallelism)
	}
	if c.Extract.TextMaxLength < 1 {
		return fmt.Errorf("extract.text_max_length: must be at least 1, got %d", c.Extract.TextMaxLength)
	}
	if c.Extract.MaxClasses < 0 {
		return fmt.Errorf("extract.max_classes: must not be negative")
	}
	if c.Extract.MaxDepth < 1 {
		return fmt.Errorf("extract.max_depth: must be at least 1, got %d", c.Extract.MaxDepth)
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
