package config

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	DatabaseDriver string // postgres or sqlite
	DatabaseURL    string
	SessionSecret  string
	JWTSecret      string
	UploadDir      string
	MaxUploadBytes int64
	SiteURL        string
	LogLevel       string
	LogFile        string
	GinMode        string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	SMTP SMTPConfig
}

// SMTPConfig is complete only when every field is set; otherwise mail is off.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Port != "" && c.Username != "" && c.Password != "" && c.From != ""
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, reading env vars from system")
	}

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DatabaseDriver: getenv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SessionSecret:  getenv("SESSION_SECRET", "secret_key_change_me"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		UploadDir:      getenv("UPLOAD_DIR", "web/static/uploads"),
		MaxUploadBytes: int64(getenvInt("MAX_UPLOAD_MB", 16)) * 1024 * 1024,
		SiteURL:        getenv("SITE_URL", "http://localhost:8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFile:        getenv("LOG_FILE", "app.log"),
		GinMode:        os.Getenv("GIN_MODE"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	// Without GIN_MODE, gin is only chatty when the log level asks for it.
	if cfg.GinMode == "" {
		cfg.GinMode = gin.ReleaseMode
		if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
			cfg.GinMode = gin.DebugMode
		}
	}

	// Tokens fall back to the session secret so a single secret is enough for dev.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer env var, using default")
		return def
	}
	return n
}
