package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 32

// Session transports.
const (
	TransportCookie = "cookie"
	TransportBearer = "bearer"
)

// Config centralises runtime configuration. It is built once at startup and
// passed by reference; nothing reads the environment afterwards.
type Config struct {
	Env      string
	LogLevel string

	HTTPPort        string
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	AllowedOrigins  []string
	AppBaseURL      string
	MaxBodyBytes    int64
	RateLimitPerHr  int

	DatabaseURL string

	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	Session       SessionConfig
	ResetTokenTTL time.Duration
	BcryptCost    int

	SMTP SMTPConfig

	KafkaBrokers       []string
	KafkaActivityTopic string

	ResetSweepSchedule string
}

// SessionConfig selects how session tokens travel between client and server.
type SessionConfig struct {
	Transport  string
	CookieName string
	CookieTTL  time.Duration
}

// SMTPConfig holds the outbound mail relay. An empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Development reports whether verbose errors and logs are enabled. Only an
// explicit APP_ENV=development turns them on.
func (c *Config) Development() bool { return c.Env == "development" }

// Production reports whether the app runs in production.
func (c *Config) Production() bool { return c.Env == "production" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("HTTP_READ_TIMEOUT", 15)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 15)
	v.SetDefault("HTTP_IDLE_TIMEOUT", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_BODY_BYTES", 32<<10)
	v.SetDefault("RATE_LIMIT_PER_HOUR", 200)
	v.SetDefault("JWT_ISSUER", "taskaty")
	v.SetDefault("JWT_EXPIRY", "90d")
	v.SetDefault("SESSION_TRANSPORT", TransportCookie)
	v.SetDefault("SESSION_COOKIE_NAME", "jwt")
	v.SetDefault("SESSION_COOKIE_TTL", 7*24*time.Hour)
	v.SetDefault("RESET_TOKEN_TTL", 10*time.Minute)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TIMEOUT", 10*time.Second)
	v.SetDefault("MAIL_FROM", "no-reply@taskaty.local")
	v.SetDefault("MAIL_FROM_NAME", "Taskaty")
	v.SetDefault("KAFKA_ACTIVITY_TOPIC", "taskaty.user-activity")
	v.SetDefault("RESET_SWEEP_SCHEDULE", "@every 15m")
}

// Load reads configuration from an optional .env file and the process
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenv string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if dotenv != "" {
		v.SetConfigFile(dotenv)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	jwtExpiry, err := parseDuration(v.GetString("JWT_EXPIRY"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRY: %w", err)
	}

	httpPort := v.GetString("HTTP_PORT")
	if httpPort == "" {
		httpPort = v.GetString("PORT")
	}

	cfg := &Config{
		Env:             strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		HTTPPort:        httpPort,
		ReadTimeoutSec:  v.GetInt("HTTP_READ_TIMEOUT"),
		WriteTimeoutSec: v.GetInt("HTTP_WRITE_TIMEOUT"),
		IdleTimeoutSec:  v.GetInt("HTTP_IDLE_TIMEOUT"),
		AllowedOrigins:  splitCSV(v.GetString("CORS_ALLOWED_ORIGINS"), "*"),
		AppBaseURL:      strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		MaxBodyBytes:    v.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerHr:  v.GetInt("RATE_LIMIT_PER_HOUR"),
		DatabaseURL:     resolveDatabaseURL(v.GetString),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		JWTExpiry:       jwtExpiry,
		Session: SessionConfig{
			Transport:  strings.ToLower(v.GetString("SESSION_TRANSPORT")),
			CookieName: v.GetString("SESSION_COOKIE_NAME"),
			CookieTTL:  v.GetDuration("SESSION_COOKIE_TTL"),
		},
		ResetTokenTTL: v.GetDuration("RESET_TOKEN_TTL"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			FromName: v.GetString("MAIL_FROM_NAME"),
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
		},
		KafkaBrokers:       splitCSV(v.GetString("KAFKA_BROKERS"), ""),
		KafkaActivityTopic: v.GetString("KAFKA_ACTIVITY_TOPIC"),
		ResetSweepSchedule: v.GetString("RESET_SWEEP_SCHEDULE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database configuration missing: provide DATABASE_URL or PG* env vars")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	switch c.Session.Transport {
	case TransportCookie, TransportBearer:
	default:
		return fmt.Errorf("SESSION_TRANSPORT must be %q or %q, got %q", TransportCookie, TransportBearer, c.Session.Transport)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.AppBaseURL != "" {
		u, err := neturl.Parse(c.AppBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("APP_BASE_URL must be an absolute http(s) URL, got %q", c.AppBaseURL)
		}
	} else if c.Production() {
		// Reset links would otherwise be built from the request Host header.
		return fmt.Errorf("APP_BASE_URL is required in production")
	}
	return nil
}

// parseDuration accepts Go durations plus a day suffix, e.g. "90d".
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		d, err := time.ParseDuration(days + "h")
		if err != nil {
			return 0, err
		}
		return d * 24, nil
	}
	return time.ParseDuration(raw)
}

func splitCSV(value, fallback string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 && fallback != "" {
		return []string{fallback}
	}
	return parts
}

func resolveDatabaseURL(get func(string) string) string {
	for _, key := range []string{
		"DATABASE_URL",
		"DATABASE_PUBLIC_URL",
		"DATABASE_INTERNAL_URL",
		"POSTGRES_URL",
		"PGURL",
	} {
		if coerced := coerceDatabaseURL(get(key)); coerced != "" {
			return coerced
		}
	}

	for _, key := range []string{"DATABASE_URL_FILE", "PGURL_FILE"} {
		if coerced := coerceDatabaseURL(readFile(get(key))); coerced != "" {
			return coerced
		}
	}

	host := firstNonEmpty(get("PGHOST"), get("POSTGRES_HOST"), get("DATABASE_HOST"))
	user := firstNonEmpty(get("PGUSER"), get("POSTGRES_USER"), get("DATABASE_USER"))
	password := firstNonEmpty(get("PGPASSWORD"), get("POSTGRES_PASSWORD"), get("DATABASE_PASSWORD"))
	database := firstNonEmpty(get("PGDATABASE"), get("POSTGRES_DB"), get("DATABASE_NAME"), user, "postgres")
	port := firstNonEmpty(get("PGPORT"), get("POSTGRES_PORT"), get("DATABASE_PORT"), "5432")
	sslMode := firstNonEmpty(get("PGSSLMODE"), get("POSTGRES_SSL_MODE"), "require")

	if host == "" || user == "" {
		return ""
	}

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
