package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr         string
		PProf        bool
		SecureCookie bool
	}
	Database struct {
		Path string
	}
	Storage struct {
		Backend   string
		Bucket    string
		Region    string
		Endpoint  string
		AccessKey string
		SecretKey string
		UseSSL    bool
		Timeout   time.Duration
		URLExpiry time.Duration
	}
	AWS struct {
		Profile string
	}
	Auth struct {
		JWTSecret        string
		RegisterPassword string
		TokenTTLMinutes  int
		EnforceOwnership bool
	}
	Cleanup struct {
		MaxConcurrent int
	}
	Log struct {
		Level string
	}
}

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	return load(".")
}

func load(dir string) (Config, error) {
	// Real environment variables win over .env entries.
	_ = godotenv.Load(dir + "/.env")

	v := viper.New()
	v.SetEnvPrefix("IMAGELIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.pprof", false)
	v.SetDefault("server.securecookie", false)
	v.SetDefault("database.path", "data/images.db")
	v.SetDefault("storage.backend", BackendS3)
	v.SetDefault("storage.bucket", "django-image-library")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.usessl", true)
	v.SetDefault("storage.timeout", 30*time.Second)
	v.SetDefault("storage.urlexpiry", time.Hour)
	v.SetDefault("aws.profile", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.registerpassword", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("auth.enforceownership", false)
	v.SetDefault("cleanup.maxconcurrent", 4)
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("storage bucket is required")
	}
	switch c.Storage.Backend {
	case BackendS3:
	case BackendMinio:
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for the %s backend", BackendMinio)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Cleanup.MaxConcurrent < 1 {
		return fmt.Errorf("cleanup max concurrent must be positive, got %d", c.Cleanup.MaxConcurrent)
	}
	return nil
}
