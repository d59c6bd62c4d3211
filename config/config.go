package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultJWTSecret = "change-me-in-production"

// Store drivers selectable with STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        string
	LogLevel    string
	CORSOrigins []string

	StoreDriver string
	MongoURI    string
	DBName      string
	PostgresDSN string
	SQLitePath  string
	// SeedFile is a yaml catalog applied at startup; "builtin" uses the demo seed, "" seeds nothing.
	SeedFile string

	JWTSecret string
	TokenTTL  time.Duration
	// AuthEmail and AuthPass create the first admin when no admin exists.
	AuthEmail string
	AuthPass  string
	// DemoLogin accepts any credentials with a chosen role. Passwords are not
	// checked, for existing accounts (the seeded admin included) as well as new ones.
	DemoLogin bool

	LoanPeriod    time.Duration
	RenewPeriod   time.Duration
	DueSoonWindow time.Duration
	LoanLimit     int
	SweepInterval time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))
	var errs []error
	days := func(key string, fallback int) time.Duration {
		n, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return time.Duration(n) * 24 * time.Hour
	}
	integer := func(key string, fallback int) int {
		n, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	demo, err := strconv.ParseBool(getEnv("DEMO_LOGIN", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DEMO_LOGIN: %w", err))
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", DriverMemory))
	seed := ""
	if driver == DriverMemory {
		seed = "builtin"
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		StoreDriver:   driver,
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "library"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/library.db"),
		SeedFile:      getEnv("SEED_FILE", seed),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:      duration("TOKEN_TTL", 24*time.Hour),
		AuthEmail:     getEnv("AUTH_EMAIL", "admin@library.edu"),
		AuthPass:      getEnv("AUTH_PASSWORD", ""),
		DemoLogin:     demo,
		LoanPeriod:    days("LOAN_PERIOD_DAYS", 14),
		RenewPeriod:   days("RENEW_DAYS", 14),
		DueSoonWindow: days("DUE_SOON_DAYS", 3),
		LoanLimit:     integer("LOAN_LIMIT", 5),
		SweepInterval: duration("SWEEP_INTERVAL", time.Hour),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      integer("SMTP_PORT", 587),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPass:      getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", "library@localhost"),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback, fmt.Errorf("%s must be a positive duration like 30m, got %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequiredEnvVars returns the variables that must be set for the chosen driver.
func (c *Config) RequiredEnvVars() []string {
	req := []string{"JWT_SECRET"}
	switch c.StoreDriver {
	case DriverMongo:
		req = append(req, "MONGODB_URI", "MONGODB_DB")
	case DriverPostgres:
		req = append(req, "POSTGRES_DSN")
	}
	if c.SMTPHost != "" {
		req = append(req, "SMTP_FROM")
	}
	return req
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"LOG_LEVEL",
	"STORE_DRIVER",
	"SQLITE_PATH",
	"SEED_FILE",
	"DEMO_LOGIN",
	"AUTH_EMAIL",
	"AUTH_PASSWORD",
	"LOAN_PERIOD_DAYS",
	"RENEW_DAYS",
	"DUE_SOON_DAYS",
	"LOAN_LIMIT",
	"SWEEP_INTERVAL",
	"SMTP_HOST",
	"AWS_S3_BUCKET",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
}

var secretEnvVars = map[string]bool{
	"JWT_SECRET":            true,
	"POSTGRES_DSN":          true,
	"MONGODB_URI":           true,
	"AUTH_PASSWORD":         true,
	"SMTP_PASSWORD":         true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
}

// ValidateEnv checks that the required env vars are set and logs the status
// of required and optional ones. Secret values are never logged.
func ValidateEnv(c *Config, logger *zap.Logger) error {
	var missing []string
	for _, key := range c.RequiredEnvVars() {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
			continue
		}
		logger.Debug("env loaded", zap.String("key", key))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		switch {
		case v == "":
			logger.Debug("env not set (optional)", zap.String("key", key))
		case secretEnvVars[key]:
			logger.Debug("env loaded", zap.String("key", key))
		default:
			logger.Debug("env loaded", zap.String("key", key), zap.String("value", v))
		}
	}
	switch c.StoreDriver {
	case DriverMemory, DriverMongo, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, mongo, postgres, sqlite; got %q", c.StoreDriver)
	}
	if c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	if c.LoanPeriod <= 0 || c.RenewPeriod <= 0 {
		return errors.New("LOAN_PERIOD_DAYS and RENEW_DAYS must be at least 1")
	}
	return nil
}
