package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration. It merges file defaults and
// environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string
	AppEnv    string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	FrontendBaseURL  string
	MagicLinkPath    string
	DeviceVerifyPath string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	LinkTTL               time.Duration
	DeviceVerificationTTL time.Duration
	SessionTTL            time.Duration

	TrustedDeviceLimit int
	LoginHistoryKeep   int
	DefaultRole        string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	EmailFrom   string
	MaxDBConns  int32
	SensorSeed  int64
}

// configFile mirrors the YAML schema used by configs/default.yaml. It is
// separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Frontend struct {
		BaseURL          string `yaml:"base_url"`
		MagicLinkPath    string `yaml:"magic_link_path"`
		DeviceVerifyPath string `yaml:"device_verify_path"`
	} `yaml:"frontend"`
	Email struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		From string `yaml:"from"`
	} `yaml:"email"`
}

// LoadConfig resolves configuration in priority order: defaults -> file ->
// env. This order keeps local bootstrap simple while allowing
// environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "shamba-auth-service",
		HTTPPort:              5000,
		FrontendBaseURL:       "http://localhost:3000",
		MagicLinkPath:         "/verify",
		DeviceVerifyPath:      "/verify-device",
		JWTKeyID:              "shamba-auth-key-1",
		AllowEphemeralJWT:     true,
		LinkTTL:               15 * time.Minute,
		DeviceVerificationTTL: 30 * time.Minute,
		SessionTTL:            24 * time.Hour,
		TrustedDeviceLimit:    5,
		LoginHistoryKeep:      10,
		DefaultRole:           "farmer",
		SMTPHost:              "smtp.gmail.com",
		SMTPPort:              587,
		MaxDBConns:            20,
		SensorSeed:            time.Now().UnixNano(),
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Frontend.BaseURL != "" {
			cfg.FrontendBaseURL = f.Frontend.BaseURL
		}
		if f.Frontend.MagicLinkPath != "" {
			cfg.MagicLinkPath = f.Frontend.MagicLinkPath
		}
		if f.Frontend.DeviceVerifyPath != "" {
			cfg.DeviceVerifyPath = f.Frontend.DeviceVerifyPath
		}
		if f.Email.Host != "" {
			cfg.SMTPHost = f.Email.Host
		}
		if f.Email.Port > 0 {
			cfg.SMTPPort = f.Email.Port
		}
		if f.Email.From != "" {
			cfg.EmailFrom = f.Email.From
		}
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(envOrDefault("APP_ENV", cfg.AppEnv)))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.FrontendBaseURL = strings.TrimRight(envOrDefault("FRONTEND_URL", cfg.FrontendBaseURL), "/")
	cfg.MagicLinkPath = envOrDefault("MAGIC_LINK_PATH", cfg.MagicLinkPath)
	cfg.DeviceVerifyPath = envOrDefault("DEVICE_VERIFY_PATH", cfg.DeviceVerifyPath)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = envOrDefault("EMAIL_USER", cfg.SMTPUser)
	cfg.SMTPPass = envOrDefault("EMAIL_APP_PASSWORD", cfg.SMTPPass)
	cfg.EmailFrom = envOrDefault("EMAIL_FROM", cfg.EmailFrom)
	cfg.DefaultRole = envOrDefault("DEFAULT_ROLE", cfg.DefaultRole)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.TrustedDeviceLimit = envInt("TRUSTED_DEVICE_LIMIT", cfg.TrustedDeviceLimit)
	cfg.LoginHistoryKeep = envInt("LOGIN_HISTORY_KEEP", cfg.LoginHistoryKeep)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.LinkTTL = time.Duration(envInt("LINK_TTL_MINUTES", int(cfg.LinkTTL.Minutes()))) * time.Minute
	cfg.DeviceVerificationTTL = time.Duration(envInt("DEVICE_VERIFY_TTL_MINUTES", int(cfg.DeviceVerificationTTL.Minutes()))) * time.Minute
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour

	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUser
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if (cfg.JWTPrivateKeyPEM == "" || cfg.JWTPublicKeyPEM == "") && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	if cfg.AppEnv == "production" && cfg.SMTPUser == "" {
		return Config{}, fmt.Errorf("missing EMAIL_USER for production mail delivery")
	}

	return cfg, nil
}

// DevMode reports whether the runtime should expose development-only
// behaviors like echoing generated links in responses. It is off unless
// APP_ENV is explicitly set to development.
func (c Config) DevMode() bool {
	return c.AppEnv == "development"
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
