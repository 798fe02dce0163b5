package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string    `yaml:"env" env:"ENV" env-default:"production"`
	LogLevel   string    `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	DataSource string    `yaml:"data_source" env:"DATA_SOURCE" env-default:"remote"`
	API        API       `yaml:"api"`
	Realtime   Realtime  `yaml:"realtime"`
	Session    Session   `yaml:"session"`
	Redis      Redis     `yaml:"redis"`
	DevServer  DevServer `yaml:"devserver"`
}

type API struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000/api"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
}

type Realtime struct {
	URL          string        `yaml:"url" env:"REALTIME_URL" env-default:"ws://localhost:5000/ws"`
	ReconnectMin time.Duration `yaml:"reconnect_min" env:"REALTIME_RECONNECT_MIN" env-default:"500ms"`
	ReconnectMax time.Duration `yaml:"reconnect_max" env:"REALTIME_RECONNECT_MAX" env-default:"30s"`
}

type Session struct {
	Backend string `yaml:"backend" env:"SESSION_BACKEND" env-default:"file"`
	Path    string `yaml:"path" env:"SESSION_PATH" env-default:".challenge-tracker/session.json"`
	Key     string `yaml:"key" env:"SESSION_KEY" env-default:"token"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type DevServer struct {
	Address          string        `yaml:"address" env:"DEVSERVER_ADDRESS" env-default:"localhost:5000"`
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"super_secret_key"`
	SimulateInterval time.Duration `yaml:"simulate_interval" env:"DEVSERVER_SIMULATE_INTERVAL" env-default:"0s"`
	LikeRateLimit    int64         `yaml:"like_rate_limit" env:"DEVSERVER_LIKE_RATE_LIMIT" env-default:"60"`
}

// Session backends
const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

// Data sources
const (
	DataSourceRemote = "remote"
	DataSourceSample = "sample"
)

// Load reads the config file at path, or only the environment when path is
// empty, and validates the enumerated settings.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist at path: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case SessionBackendFile:
	case SessionBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("session backend %q requires redis.address", c.Session.Backend)
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	switch c.DataSource {
	case DataSourceRemote, DataSourceSample:
	default:
		return fmt.Errorf("unknown data source %q", c.DataSource)
	}

	if c.Realtime.ReconnectMin <= 0 || c.Realtime.ReconnectMax < c.Realtime.ReconnectMin {
		return fmt.Errorf("invalid reconnect window %s..%s", c.Realtime.ReconnectMin, c.Realtime.ReconnectMax)
	}
	return nil
}

// MustLoad resolves the config path from CONFIG_PATH or the -config flag.
// Without either, configuration comes from the environment alone.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	return cfg
}
