package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/infigaming-com/fxboard/cache"
	"github.com/infigaming-com/fxboard/pkg/cloudflare"
	"github.com/joho/godotenv"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

type Config struct {
	Env        string            `yaml:"env" env:"APP_ENV" env-default:"development"`
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
	UnionPay   UnionPayConfig    `yaml:"unionpay"`
	CBR        CBRConfig         `yaml:"cbr"`
	Refresh    RefreshConfig     `yaml:"refresh"`
	Board      BoardConfig       `yaml:"board"`
	Cache      CacheConfig       `yaml:"cache"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Cloudflare cloudflare.Config `yaml:"cloudflare"`
}

type ServerConfig struct {
	Port            int64         `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	Mode            string        `yaml:"mode" env:"GIN_MODE" env-default:"release"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	// HTTPDebug logs request headers and response bodies.
	HTTPDebug bool `yaml:"http_debug" env:"LOG_HTTP_DEBUG"`
}

type UnionPayConfig struct {
	BaseURL string `yaml:"base_url" env:"UNIONPAY_BASE_URL" env-default:"https://www.unionpayintl.com"`
}

type CBRConfig struct {
	URL string `yaml:"url" env:"CBR_URL" env-default:"https://www.cbr.ru/scripts/XML_daily.asp"`
}

type RefreshConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"REFRESH_FETCH_TIMEOUT" env-default:"30s"`
	// Interval drives the background refresher. Zero leaves refreshing to incoming requests.
	Interval time.Duration `yaml:"interval" env:"REFRESH_INTERVAL" env-default:"5m"`
	// Retries re-sends a failed upstream request. Off by default: the UnionPay
	// yesterday fallback is the only retry a fetch makes unless this is raised.
	Retries int `yaml:"retries" env:"REFRESH_RETRIES" env-default:"0"`
}

type BoardConfig struct {
	DefaultBase string `yaml:"default_base" env:"BOARD_DEFAULT_BASE" env-default:"RUB"`
	Precision   int32  `yaml:"precision" env:"BOARD_PRECISION" env-default:"6"`
}

type CacheConfig struct {
	Backend    string                 `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`
	TTL        time.Duration          `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
	MemorySize int                    `yaml:"memory_size" env:"CACHE_MEMORY_SIZE" env-default:"16777216"`
	Redis      cache.RedisCacheConfig `yaml:"redis"`
}

type MetricsConfig struct {
	Prometheus       bool          `yaml:"prometheus" env:"METRICS_PROMETHEUS" env-default:"true"`
	OTLPEndpoint     string        `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPGRPCEndpoint string        `yaml:"otlp_grpc_endpoint" env:"OTEL_EXPORTER_OTLP_GRPC_ENDPOINT"`
	ServiceName      string        `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"fxboard"`
	ExportInterval   time.Duration `yaml:"export_interval" env:"METRICS_EXPORT_INTERVAL" env-default:"10s"`
}

// OTLPEnabled reports whether any OTLP endpoint is configured.
func (m MetricsConfig) OTLPEnabled() bool {
	return m.OTLPEndpoint != "" || m.OTLPGRPCEndpoint != ""
}

// Load reads an optional .env file, then the first existing YAML file in paths.
// Environment variables override YAML values. Without a YAML file only the environment is read.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	path := firstExisting(paths)
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if !slices.Contains([]string{CacheBackendMemory, CacheBackendRedis, CacheBackendNone}, c.Cache.Backend) {
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis cache requires CACHE_REDIS_ADDR")
	}
	if c.Board.Precision < 0 {
		return fmt.Errorf("invalid board precision %d", c.Board.Precision)
	}
	if c.Refresh.Retries < 0 {
		return fmt.Errorf("invalid refresh retries %d", c.Refresh.Retries)
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("invalid refresh interval %s", c.Refresh.Interval)
	}
	return nil
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
