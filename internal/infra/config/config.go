package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RefreshStorePostgres = "postgres"
	RefreshStoreRedis    = "redis"

	minSecretLength = 32
)

type Config struct {
	DatabaseURL string

	JWTSecret       string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PasswordPepper  string
	DefaultRole     string

	HTTPAddress   string
	GRPCAddress   string
	HTTPSCertFile string
	HTTPSKeyFile  string

	RefreshStore  string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AllowedOrigins   []string
	AllowCredentials bool

	SweepInterval time.Duration
	LogLevel      string
	RateLimit     float64
	RateBurst     int
}

var envKeys = []string{
	"DATABASE_URL", "JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"PASSWORD_PEPPER", "DEFAULT_ROLE", "HTTP_ADDRESS", "GRPC_ADDRESS", "HTTPS_CERT_FILE",
	"HTTPS_KEY_FILE", "REFRESH_STORE", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS", "SWEEP_INTERVAL", "LOG_LEVEL", "RATE_LIMIT", "RATE_BURST",
}

// Load reads an optional config.json from the working directory and lets the environment override it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("JWT_ISSUER", "notes-service")
	v.SetDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("DEFAULT_ROLE", "USER")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("REFRESH_STORE", RefreshStorePostgres)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALLOW_CREDENTIALS", false)
	v.SetDefault("SWEEP_INTERVAL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT", 50.0)
	v.SetDefault("RATE_BURST", 100)

	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		Issuer:           v.GetString("JWT_ISSUER"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		PasswordPepper:   v.GetString("PASSWORD_PEPPER"),
		DefaultRole:      v.GetString("DEFAULT_ROLE"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		GRPCAddress:      v.GetString("GRPC_ADDRESS"),
		HTTPSCertFile:    v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:     v.GetString("HTTPS_KEY_FILE"),
		RefreshStore:     strings.ToLower(v.GetString("REFRESH_STORE")),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		SweepInterval:    v.GetDuration("SWEEP_INTERVAL"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		RateLimit:        v.GetFloat64("RATE_LIMIT"),
		RateBurst:        v.GetInt("RATE_BURST"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("DATABASE_URL не задана")
	case len(c.JWTSecret) < minSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	case c.Issuer == "":
		return fmt.Errorf("JWT_ISSUER не задан")
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %v", c.AccessTokenTTL)
	case c.RefreshTokenTTL <= 0:
		return fmt.Errorf("REFRESH_TOKEN_TTL must be positive, got %v", c.RefreshTokenTTL)
	case c.SweepInterval <= 0:
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.SweepInterval)
	case c.DefaultRole == "":
		return fmt.Errorf("DEFAULT_ROLE не задана")
	}

	switch c.RefreshStore {
	case RefreshStorePostgres:
	case RefreshStoreRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when REFRESH_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown REFRESH_STORE %q", c.RefreshStore)
	}

	if (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == "") {
		return fmt.Errorf("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	return nil
}

// TLSEnabled reports whether both listeners should serve TLS.
func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

func splitList(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
