package config

const (
	EnvPrefix = "shipdash"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	EnvAppEnv       = "SHIPDASH_APP_ENV"
	EnvAppPort      = "SHIPDASH_APP_PORT"
	EnvApexBaseURL  = "SHIPDASH_APEX_BASE_URL"
	EnvApexToken    = "SHIPDASH_APEX_TOKEN"
	EnvCacheBackend = "SHIPDASH_CACHE_BACKEND"
	EnvRedisURL     = "SHIPDASH_REDIS_URL"
	EnvRedisAddr    = "SHIPDASH_REDIS_ADDR"
)
