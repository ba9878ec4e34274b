package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Apex    ApexConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Reports ReportsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cache.validate(); err != nil {
		return nil, err
	}
	if cfg.Cache.IsRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required when cache backend is redis", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIPDASH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHIPDASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPDASH_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SHIPDASH_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ApexConfig drives the upstream trading-platform client. The bearer token is
// an opaque credential and must only ever arrive through the environment.
type ApexConfig struct {
	BaseURL        string        `envconfig:"SHIPDASH_APEX_BASE_URL" required:"true"`
	Token          string        `envconfig:"SHIPDASH_APEX_TOKEN" required:"true"`
	PerPage        int           `envconfig:"SHIPDASH_APEX_PER_PAGE" default:"500"`
	MaxPerPage     int           `envconfig:"SHIPDASH_APEX_MAX_PER_PAGE" default:"500"`
	BatchSize      int           `envconfig:"SHIPDASH_APEX_BATCH_SIZE" default:"50"`
	SummaryTimeout time.Duration `envconfig:"SHIPDASH_APEX_SUMMARY_TIMEOUT" default:"60s"`
	DetailTimeout  time.Duration `envconfig:"SHIPDASH_APEX_DETAIL_TIMEOUT" default:"120s"`
	FailFast       bool          `envconfig:"SHIPDASH_APEX_FAIL_FAST" default:"false"`
}

type CacheConfig struct {
	Backend         string        `envconfig:"SHIPDASH_CACHE_BACKEND" default:"memory"`
	TTL             time.Duration `envconfig:"SHIPDASH_CACHE_TTL" default:"5m"`
	DetailTTLFactor int           `envconfig:"SHIPDASH_CACHE_DETAIL_TTL_FACTOR" default:"2"`
	MaxEntries      int           `envconfig:"SHIPDASH_CACHE_MAX_ENTRIES" default:"512"`
}

func (c CacheConfig) IsRedis() bool {
	return strings.EqualFold(c.Backend, CacheBackendRedis)
}

// DetailTTL returns the longer expiry applied to with-items payloads, which
// change less frequently than order status does.
func (c CacheConfig) DetailTTL() time.Duration {
	factor := c.DetailTTLFactor
	if factor < 1 {
		factor = 1
	}
	return c.TTL * time.Duration(factor)
}

func (c CacheConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case CacheBackendMemory, CacheBackendRedis:
		return nil
	default:
		return fmt.Errorf("cache backend must be %q or %q", CacheBackendMemory, CacheBackendRedis)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIPDASH_REDIS_URL"`
	Address      string        `envconfig:"SHIPDASH_REDIS_ADDR"`
	Password     string        `envconfig:"SHIPDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIPDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIPDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIPDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIPDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ReportsConfig struct {
	TopCustomers int           `envconfig:"SHIPDASH_REPORTS_TOP_CUSTOMERS" default:"5"`
	TopProducts  int           `envconfig:"SHIPDASH_REPORTS_TOP_PRODUCTS" default:"5"`
	RecentWindow time.Duration `envconfig:"SHIPDASH_REPORTS_RECENT_WINDOW" default:"168h"`
	RecentLimit  int           `envconfig:"SHIPDASH_REPORTS_RECENT_LIMIT" default:"10"`
}
