package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Scheduling SchedulingConfig
	JWT        JWTConfig
	Log        LogConfig
	Tracing    TracingConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Kafka      KafkaConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	// Breaker trips after this many consecutive store failures and stays
	// open for BreakerOpenTimeout.
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	// LocalFallback lets a single-instance deployment cache in process
	// when Redis is unreachable at startup. Replicas never share it.
	LocalFallback bool
}

type SchedulingConfig struct {
	// Timezone is the IANA zone used for weekdays and times of day.
	Timezone           string
	CancellationWindow time.Duration
	MinSlotMinutes     int
	MaxSlotMinutes     int
	DefaultSlotMinutes int

	location *time.Location
}

// Location returns the resolved Timezone. Load guarantees it is set.
func (s SchedulingConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// WithLocation returns a copy bound to loc.
func (s SchedulingConfig) WithLocation(loc *time.Location) SchedulingConfig {
	s.Timezone = loc.String()
	s.location = loc
	return s
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Global Rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
	// Booking endpoints have stricter limits
	BookingRequestsPerMinute int
}

type KafkaConfig struct {
	// Brokers empty disables event publishing.
	Brokers []string
	Topic   string
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "medflow-scheduling")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "0.0.0")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "medflow")
	v.SetDefault("DB_USER", "medflow")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 2*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 500*time.Millisecond)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 500*time.Millisecond)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_BREAKER_FAILURES", 5)
	v.SetDefault("CACHE_BREAKER_OPEN_TIMEOUT", 30*time.Second)
	v.SetDefault("CACHE_LOCAL_FALLBACK", false)

	v.SetDefault("SCHEDULING_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULING_CANCELLATION_WINDOW", 2*time.Hour)
	v.SetDefault("SCHEDULING_MIN_SLOT_MINUTES", 15)
	v.SetDefault("SCHEDULING_MAX_SLOT_MINUTES", 120)
	v.SetDefault("SCHEDULING_DEFAULT_SLOT_MINUTES", 30)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_ISSUER", "medflow-api")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("TRACING_ENABLED", true)
	v.SetDefault("TRACING_SERVICE_NAME", "medflow-scheduling")
	v.SetDefault("OTLP_ENDPOINT", "otel-collector:4318")
	v.SetDefault("TRACING_SAMPLE_RATE", 0.1)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://app.medflow.io")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", 12*time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("RATE_LIMIT_BOOKING_RPM", 20)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "appointments.events")
}

func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// A missing .env is normal outside local development.
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			TTL:                v.GetDuration("CACHE_TTL"),
			BreakerFailures:    v.GetUint32("CACHE_BREAKER_FAILURES"),
			BreakerOpenTimeout: v.GetDuration("CACHE_BREAKER_OPEN_TIMEOUT"),
			LocalFallback:      v.GetBool("CACHE_LOCAL_FALLBACK"),
		},
		Scheduling: SchedulingConfig{
			Timezone:           v.GetString("SCHEDULING_TIMEZONE"),
			CancellationWindow: v.GetDuration("SCHEDULING_CANCELLATION_WINDOW"),
			MinSlotMinutes:     v.GetInt("SCHEDULING_MIN_SLOT_MINUTES"),
			MaxSlotMinutes:     v.GetInt("SCHEDULING_MAX_SLOT_MINUTES"),
			DefaultSlotMinutes: v.GetInt("SCHEDULING_DEFAULT_SLOT_MINUTES"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			AccessTokenTTL: v.GetDuration("JWT_ACCESS_TTL"),
			Issuer:         v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			Endpoint:    v.GetString("OTLP_ENDPOINT"),
			SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			MaxAge:         v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:        v.GetFloat64("RATE_LIMIT_RPS"),
			BurstSize:                v.GetInt("RATE_LIMIT_BURST"),
			BookingRequestsPerMinute: v.GetInt("RATE_LIMIT_BOOKING_RPM"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces production security requirements and resolves the
// scheduling timezone.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.IsProduction() {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.IsProduction() {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	loc, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("SCHEDULING_TIMEZONE %q is not a valid IANA zone", cfg.Scheduling.Timezone))
	} else {
		cfg.Scheduling.location = loc
	}

	s := cfg.Scheduling
	if s.MinSlotMinutes <= 0 || s.MinSlotMinutes > s.MaxSlotMinutes {
		errs = append(errs, "SCHEDULING_MIN_SLOT_MINUTES must be positive and not exceed SCHEDULING_MAX_SLOT_MINUTES")
	}
	if s.DefaultSlotMinutes < s.MinSlotMinutes || s.DefaultSlotMinutes > s.MaxSlotMinutes {
		errs = append(errs, "SCHEDULING_DEFAULT_SLOT_MINUTES must lie within the slot bounds")
	}
	if s.CancellationWindow < 0 {
		errs = append(errs, "SCHEDULING_CANCELLATION_WINDOW must not be negative")
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive when the cache is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
