package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server  ServerConfig  `envconfig:"SERVER"`
	Auth    AuthConfig    `envconfig:"AUTH"`
	Content ContentConfig `envconfig:"CONTENT"`
	Uploads UploadsConfig `envconfig:"UPLOADS"`
	Audit   AuditConfig   `envconfig:"AUDIT"`
	CORS    CORSConfig    `envconfig:"CORS"`
	Log     LogConfig     `envconfig:"LOG"`
}

type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8000"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"development"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}

type AuthConfig struct {
	// Mode selects the token codec: "signed" (HS256) or "insecure"
	// (unsigned base64 segments, parity with the legacy panel, test-only).
	Mode       string        `envconfig:"MODE" default:"signed"`
	Secret     string        `envconfig:"SECRET" default:"change-me-in-production"`
	CookieName string        `envconfig:"COOKIE_NAME" default:"auth_token"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	// DevBypass forces every request to count as authenticated. Only
	// honored when Server.Environment is "development".
	DevBypass bool   `envconfig:"DEV_BYPASS" default:"false"`
	UsersFile string `envconfig:"USERS_FILE" default:""`
}

type ContentConfig struct {
	Dir        string `envconfig:"DIR" default:"content"`
	Collection string `envconfig:"COLLECTION" default:"productos"`
}

type UploadsConfig struct {
	Dir           string `envconfig:"DIR" default:"public/uploads"`
	URLPrefix     string `envconfig:"URL_PREFIX" default:"/uploads"`
	MaxSizeBytes  int64  `envconfig:"MAX_SIZE_BYTES" default:"10485760"`
	MaxPerProduct int    `envconfig:"MAX_PER_PRODUCT" default:"5"`
	AllowedExts   string `envconfig:"ALLOWED_EXTS" default:".jpg,.jpeg,.png,.gif,.webp"`
	DefaultExt    string `envconfig:"DEFAULT_EXT" default:".jpg"`
	MaxNameLength int    `envconfig:"MAX_NAME_LENGTH" default:"50"`
}

type AuditConfig struct {
	Dir           string `envconfig:"DIR" default:"logs"`
	RetentionDays int    `envconfig:"RETENTION_DAYS" default:"30"`
}

type CORSConfig struct {
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"*"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// AllowedExtensions returns the upload extension allow-list as a slice
func (c *UploadsConfig) AllowedExtensions() []string {
	parts := strings.Split(c.AllowedExts, ",")
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			exts = append(exts, p)
		}
	}
	return exts
}

func validateConfig(cfg *Config) error {
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", cfg.Server.Port)
	}

	switch cfg.Auth.Mode {
	case "signed", "insecure":
	default:
		return fmt.Errorf("invalid auth mode: %s (want signed or insecure)", cfg.Auth.Mode)
	}

	if cfg.Auth.Mode == "signed" && cfg.Server.Environment == "production" &&
		cfg.Auth.Secret == "change-me-in-production" {
		return fmt.Errorf("AUTH_SECRET must be set in production")
	}

	if cfg.Uploads.MaxSizeBytes <= 0 {
		return fmt.Errorf("invalid upload size limit: %d", cfg.Uploads.MaxSizeBytes)
	}

	if cfg.Audit.RetentionDays < 1 {
		return fmt.Errorf("invalid audit retention: %d days", cfg.Audit.RetentionDays)
	}

	return nil
}
