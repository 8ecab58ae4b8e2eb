package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Redis     RedisConfig     `yaml:"redis"`
	Chat      ChatConfig      `yaml:"chat"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Timezone"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings. WriteTimeout bounds a whole
// chat stream, so it is longer than a typical API timeout.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// StatementTimeout is applied per connection; zero leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"15s"`
}

// AuthConfig holds settings for validating bearer tokens issued by the
// identity provider.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"   env:"AUTH_JWT_SECRET"   env-required:"true"`
	JWTIssuer   string `yaml:"jwt_issuer"   env:"AUTH_JWT_ISSUER"`
	JWTAudience string `yaml:"jwt_audience" env:"AUTH_JWT_AUDIENCE"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	ChatPerMinute   int           `yaml:"chat_per_minute"  env:"RATE_LIMIT_CHAT_PER_MINUTE" env-default:"30"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP"         env-default:"5m"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	Backend    string `yaml:"backend"    env:"VECTOR_BACKEND"    env-default:"pgvector"`
	Dimensions int    `yaml:"dimensions" env:"VECTOR_DIMENSIONS" env-default:"1536"`
}

// EmbeddingConfig holds embedding API settings.
type EmbeddingConfig struct {
	APIKey     string        `yaml:"api_key"     env:"EMBEDDING_API_KEY"`
	BaseURL    string        `yaml:"base_url"    env:"EMBEDDING_BASE_URL"    env-default:"https://api.openai.com/v1"`
	Model      string        `yaml:"model"       env:"EMBEDDING_MODEL"       env-default:"text-embedding-3-small"`
	Timeout    time.Duration `yaml:"timeout"     env:"EMBEDDING_TIMEOUT"     env-default:"15s"`
	MaxRetries uint64        `yaml:"max_retries" env:"EMBEDDING_MAX_RETRIES" env-default:"3"`
	CacheTTL   time.Duration `yaml:"cache_ttl"   env:"EMBEDDING_CACHE_TTL"   env-default:"24h"`
}

// LLMConfig holds language model settings.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"          env:"LLM_API_KEY"`
	Model           string `yaml:"model"            env:"LLM_MODEL"            env-default:"claude-sonnet-4-5"`
	ClassifierModel string `yaml:"classifier_model" env:"LLM_CLASSIFIER_MODEL" env-default:"claude-haiku-4-5"`
	MaxTokens       int64  `yaml:"max_tokens"       env:"LLM_MAX_TOKENS"       env-default:"2048"`
}

// RedisConfig holds the embedding cache connection. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// ChatConfig holds assistant orchestration parameters.
type ChatConfig struct {
	MaxSteps         int    `yaml:"max_steps"         env:"CHAT_MAX_STEPS"         env-default:"5"`
	ClassifierWindow int    `yaml:"classifier_window" env:"CHAT_CLASSIFIER_WINDOW" env-default:"6"`
	TopK             int    `yaml:"top_k"             env:"CHAT_TOP_K"             env-default:"20"`
	DefaultTimezone  string `yaml:"default_timezone"  env:"CHAT_DEFAULT_TIMEZONE"  env-default:"UTC"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}
