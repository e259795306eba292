package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	ServiceName string `mapstructure:"service_name"`
	APIPrefix   string `mapstructure:"api_prefix"`

	Database       DatabaseConfig   `mapstructure:"database"`
	JWT            JWTConfig        `mapstructure:"jwt"`
	Revocation     RevocationConfig `mapstructure:"revocation"`
	Redis          RedisConfig      `mapstructure:"redis"`
	Consul         ConsulConfig     `mapstructure:"consul"`
	CORS           CORSConfig       `mapstructure:"cors"`
	LoginRateLimit RateLimitConfig  `mapstructure:"login_rate_limit"`
	Seed           SeedConfig       `mapstructure:"seed"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	LogLevel string `mapstructure:"log_level"`
}

// JWTConfig holds the signing secret, the HMAC algorithm name and the access token lifetime.
type JWTConfig struct {
	Secret                   string `mapstructure:"secret"`
	Algorithm                string `mapstructure:"algorithm"`
	AccessTokenExpireMinutes int    `mapstructure:"access_token_expire_minutes"`
	Issuer                   string `mapstructure:"issuer"`
}

// AccessTokenTTL returns the configured lifetime as a duration.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenExpireMinutes) * time.Minute
}

type RevocationConfig struct {
	Backend       string        `mapstructure:"backend"` // memory or redis
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ConsulConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Address       string `mapstructure:"address"`
	ServiceHost   string `mapstructure:"service_host"`
	CheckInterval string `mapstructure:"check_interval"`
	CheckTimeout  string `mapstructure:"check_timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type SeedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

const insecureDefaultSecret = "default-very-insecure-secret-key"

// Load reads config.yaml from the working directory or ./config, then applies
// DSADMIN_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("DSADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "dsadmin")
	v.SetDefault("api_prefix", "/api/v1")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.url", "dsadmin:dsadmin@tcp(127.0.0.1:3306)/dsadmin?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("jwt.secret", insecureDefaultSecret) // CHANGE THIS IN PRODUCTION
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_token_expire_minutes", 30)
	v.SetDefault("jwt.issuer", "dsadmin")

	v.SetDefault("revocation.backend", "memory")
	v.SetDefault("revocation.prune_interval", 10*time.Minute)
	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("consul.service_host", "127.0.0.1")
	v.SetDefault("consul.check_interval", "10s")
	v.SetDefault("consul.check_timeout", "1s")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost", "http://localhost:3000"})

	v.SetDefault("login_rate_limit.requests_per_minute", 10)
	v.SetDefault("login_rate_limit.burst", 5)

	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.admin_name", "Admin")
	v.SetDefault("seed.admin_email", "admin@example.com")
	v.SetDefault("seed.admin_password", "adminpassword")
}

// Validate rejects configurations the token service cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret must not be empty")
	}
	if !strings.HasPrefix(strings.ToUpper(c.JWT.Algorithm), "HS") {
		return fmt.Errorf("config: jwt.algorithm %q is not an HMAC algorithm", c.JWT.Algorithm)
	}
	if c.JWT.AccessTokenExpireMinutes <= 0 {
		return errors.New("config: jwt.access_token_expire_minutes must be positive")
	}
	switch c.Revocation.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown revocation.backend %q", c.Revocation.Backend)
	}
	return nil
}

// UsesInsecureSecret reports whether the built-in development secret is still in use.
func (c *Config) UsesInsecureSecret() bool {
	return c.JWT.Secret == insecureDefaultSecret
}
