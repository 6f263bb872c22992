package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zrupay/zru-go/pkg/zru"
)

const (
	configPathEnv = "ZRU_CONFIG_PATH"
	apiKeyEnv     = "API_KEY"
	secretKeyEnv  = "SECRET_KEY"
)

type Config struct {
	Mocked bool `yaml:"mocked"`
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	ZRU struct {
		APIKey       string        `yaml:"api_key"`
		SecretKey    string        `yaml:"secret_key"`
		BaseURL      string        `yaml:"base_url"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRetries   *int          `yaml:"max_retries"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
		EnvFile      string        `yaml:"env_file"`
	} `yaml:"zru"`
	Postgres struct {
		Enabled     bool   `yaml:"enabled"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		Host        string `yaml:"host"`
		Database    string `yaml:"database"`
		QueriesPath string `yaml:"queries_path"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		DedupTTL time.Duration `yaml:"dedup_ttl"`
	} `yaml:"redis"`
	Log struct {
		Level      string `yaml:"level"`
		Filename   string `yaml:"filename"`
		MaxSize    int    `yaml:"max_size"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Notifications struct {
		RetryInterval time.Duration `yaml:"retry_interval"`
		RetryWindow   time.Duration `yaml:"retry_window"`
	} `yaml:"notifications"`
	Monitoring struct {
		StatusInterval time.Duration `yaml:"status_interval"`
	} `yaml:"monitoring"`
}

var (
	mu     sync.RWMutex
	loaded *Config
)

// GetConfigPath returns the config file path from ZRU_CONFIG_PATH.
func GetConfigPath() (string, error) {
	path, ok := os.LookupEnv(configPathEnv)
	if !ok || path == "" {
		return "", fmt.Errorf("%s is not set", configPathEnv)
	}
	return path, nil
}

// LoadConfig reads and validates the YAML file at path and makes it
// available through GetConfig. Credentials from the env file named in the
// config, or from the process environment, take precedence over the file.
func LoadConfig(path string) error {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	c, err := Parse(bytes)
	if err != nil {
		return err
	}

	if c.ZRU.EnvFile != "" {
		if err := LoadCredentials(c.ZRU.EnvFile); err != nil {
			return err
		}
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return err
	}

	mu.Lock()
	loaded = c
	mu.Unlock()
	return nil
}

// GetConfig returns the config stored by LoadConfig.
func GetConfig() (*Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if loaded == nil {
		return nil, fmt.Errorf("config has not been loaded")
	}
	return loaded, nil
}

// Parse decodes a YAML document and fills in defaults.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.setDefaults()
	return c, nil
}

// LoadCredentials loads API_KEY and SECRET_KEY from an env file into the
// process environment. Variables already set are not overridden.
func LoadCredentials(envPath string) error {
	err := godotenv.Load(envPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load env file %s: %w", envPath, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(apiKeyEnv); ok && v != "" {
		c.ZRU.APIKey = v
	}
	if v, ok := os.LookupEnv(secretKeyEnv); ok && v != "" {
		c.ZRU.SecretKey = v
	}
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.ZRU.Timeout == 0 {
		c.ZRU.Timeout = 30 * time.Second
	}
	// absent means the default; an explicit 0 turns retries off
	if c.ZRU.MaxRetries == nil {
		maxRetries := zru.DefaultMaxRetries
		c.ZRU.MaxRetries = &maxRetries
	}
	if c.ZRU.RetryBackoff == 0 {
		c.ZRU.RetryBackoff = 500 * time.Millisecond
	}
	if c.Redis.DedupTTL == 0 {
		c.Redis.DedupTTL = 72 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Filename == "" {
		c.Log.Filename = "logs/zru.log"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 28
	}
	if c.Notifications.RetryInterval == 0 {
		c.Notifications.RetryInterval = 1 * time.Minute
	}
	if c.Notifications.RetryWindow == 0 {
		c.Notifications.RetryWindow = 24 * time.Hour
	}
	if c.Monitoring.StatusInterval == 0 {
		c.Monitoring.StatusInterval = 30 * time.Second
	}
}

// Validate checks the settings needed to start the service.
func (c *Config) Validate() error {
	if c.Monitoring.StatusInterval <= 0 {
		return fmt.Errorf("monitoring.status_interval must be positive, got %s", c.Monitoring.StatusInterval)
	}
	if c.Notifications.RetryInterval <= 0 {
		return fmt.Errorf("notifications.retry_interval must be positive, got %s", c.Notifications.RetryInterval)
	}
	if c.Notifications.RetryWindow <= 0 {
		return fmt.Errorf("notifications.retry_window must be positive, got %s", c.Notifications.RetryWindow)
	}
	if c.Redis.DedupTTL <= 0 {
		return fmt.Errorf("redis.dedup_ttl must be positive, got %s", c.Redis.DedupTTL)
	}
	if c.ZRU.MaxRetries != nil && *c.ZRU.MaxRetries < 0 {
		return fmt.Errorf("zru.max_retries must not be negative, got %d", *c.ZRU.MaxRetries)
	}
	if c.Mocked {
		return nil
	}
	if c.ZRU.APIKey == "" {
		return fmt.Errorf("missing required setting: zru.api_key (or %s)", apiKeyEnv)
	}
	if c.ZRU.SecretKey == "" {
		return fmt.Errorf("missing required setting: zru.secret_key (or %s)", secretKeyEnv)
	}
	if c.Postgres.Enabled && (c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.QueriesPath == "") {
		return fmt.Errorf("postgres is enabled but host, database or queries_path is missing")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis is enabled but addr is missing")
	}
	return nil
}
