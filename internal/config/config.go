// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env  string // APP_ENV (dev, test, prod)
	Port string // APP_PORT

	StoreDriver    string // STORE_DRIVER: mysql or memory
	DBUser         string // DB_USER
	DBPass         string // DB_PASS (empty allowed)
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	MigrateOnStart bool   // DB_MIGRATE
	SeedDemo       bool   // SEED_DEMO, memory driver only

	JWTSecret string // JWT_SECRET

	CleanupBuffer    time.Duration // SCHEDULE_CLEANUP_BUFFER
	TicketCodePrefix string        // TICKET_CODE_PREFIX

	RabbitMQURL   string // RABBITMQ_URL or AMQP_URL; empty disables events
	AuditLogPath  string // BOOKING_AUDIT_LOG
	EventConsumer bool   // EVENT_CONSUMER_ENABLED

	LogLevel       string // LOG_LEVEL
	LogDevelopment bool   // LOG_DEVELOPMENT
	LogOutput      string // LOG_OUTPUT
}

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set.  Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from the environment.  Every missing
// required variable is reported in the returned error.
func Load() (Config, error) {
	var r reader
	cfg := Config{
		Env:              envStr("APP_ENV", "dev"),
		Port:             envStr("APP_PORT", "8080"),
		StoreDriver:      strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		MigrateOnStart:   envBool("DB_MIGRATE", true),
		SeedDemo:         envBool("SEED_DEMO", false),
		JWTSecret:        r.must("JWT_SECRET"),
		CleanupBuffer:    envDur("SCHEDULE_CLEANUP_BUFFER", 20*time.Minute),
		TicketCodePrefix: envStr("TICKET_CODE_PREFIX", "TK"),
		RabbitMQURL:      envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		AuditLogPath:     envStr("BOOKING_AUDIT_LOG", "logs/booking.log"),
		EventConsumer:    envBool("EVENT_CONSUMER_ENABLED", true),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogDevelopment:   envBool("LOG_DEVELOPMENT", false),
		LogOutput:        envStr("LOG_OUTPUT", "stdout"),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		if _, err := strconv.Atoi(cfg.DBPort); err != nil {
			r.invalid = append(r.invalid, fmt.Sprintf("DB_PORT=%q", cfg.DBPort))
		}
		cfg.DBName = r.must("DB_NAME")
	case DriverMemory:
	default:
		r.invalid = append(r.invalid, fmt.Sprintf("STORE_DRIVER=%q", cfg.StoreDriver))
	}
	if cfg.CleanupBuffer < 0 {
		r.invalid = append(r.invalid, "SCHEDULE_CLEANUP_BUFFER must not be negative")
	}
	if cfg.TicketCodePrefix == "" || strings.Contains(cfg.TicketCodePrefix, "-") || len(cfg.TicketCodePrefix) > 8 {
		r.invalid = append(r.invalid, fmt.Sprintf("TICKET_CODE_PREFIX=%q", cfg.TicketCodePrefix))
	}
	return cfg, r.err()
}

// reader collects problems so Load can report all of them at once.
type reader struct {
	missing []string
	invalid []string
}

// must retrieves a required environment variable and records it when
// unset or empty.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) err() error {
	var errs []error
	if len(r.missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required env vars: %s", strings.Join(r.missing, ", ")))
	}
	if len(r.invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid env values: %s", strings.Join(r.invalid, ", ")))
	}
	return errors.Join(errs...)
}
