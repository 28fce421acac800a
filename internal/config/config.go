// Package config loads the service settings of the topoguia server from
// defaults, an optional config file and TOPOGUIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates the server settings.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GeneratorConfig selects the template and theme of the deployment.
type GeneratorConfig struct {
	Template   string  `mapstructure:"template"`
	Theme      string  `mapstructure:"theme"`      // path to a TOML theme, optional
	Stationery string  `mapstructure:"stationery"` // path to a letterhead PDF, optional
	MaxDPI     float64 `mapstructure:"max_dpi"`
	Code       string  `mapstructure:"code"` // "qr" or "pdf417"
}

// RedisConfig enables the shared asset cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MinIOConfig enables archiving of generated guides when Endpoint is set.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
}

// Enabled reports whether Redis caching is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// Enabled reports whether archiving is configured.
func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// Load reads the configuration. path names an optional config file in any
// format viper understands; an empty path reads only defaults and the
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TOPOGUIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("generator.template", "portrait")
	v.SetDefault("generator.max_dpi", 300)
	v.SetDefault("generator.code", "qr")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("minio.bucket", "topoguias")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"server.addr":             "TOPOGUIA_ADDR",
		"server.max_upload_mb":    "TOPOGUIA_MAX_UPLOAD_MB",
		"generator.template":      "TOPOGUIA_TEMPLATE",
		"generator.theme":         "TOPOGUIA_THEME",
		"generator.stationery":    "TOPOGUIA_STATIONERY",
		"generator.code":          "TOPOGUIA_CODE",
		"redis.addr":              "TOPOGUIA_REDIS_ADDR",
		"redis.password":          "TOPOGUIA_REDIS_PASSWORD",
		"minio.endpoint":          "TOPOGUIA_MINIO_ENDPOINT",
		"minio.access_key_id":     "TOPOGUIA_MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key": "TOPOGUIA_MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":           "TOPOGUIA_MINIO_USE_SSL",
		"minio.bucket":            "TOPOGUIA_MINIO_BUCKET",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.Server.Addr == "" {
		return errors.New("server addr is required")
	}
	if cfg.Server.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	if cfg.Generator.MaxDPI < 0 {
		return errors.New("max dpi must not be negative")
	}
	switch cfg.Generator.Code {
	case "qr", "pdf417":
	default:
		return fmt.Errorf("unknown code symbology %q", cfg.Generator.Code)
	}
	if cfg.MinIO.Enabled() {
		if cfg.MinIO.AccessKeyID == "" || cfg.MinIO.SecretAccessKey == "" {
			return errors.New("minio credentials are required when the endpoint is set")
		}
		if cfg.MinIO.Bucket == "" {
			return errors.New("minio bucket is required")
		}
	}
	return nil
}
