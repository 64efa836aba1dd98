// Package config loads process configuration from the environment,
// optionally seeded from a .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig selects log verbosity/format.
type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig points the Dispatcher at a shared queue/worker-table
// store. Addr == "" means "use the in-memory Dispatcher instead".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig configures the Postgres-backed SolutionSink. DSN ==
// "" means "use the in-memory SolutionSink instead".
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// DispatcherConfig carries the tunables from spec.md §4.3.
type DispatcherConfig struct {
	HeartbeatInterval time.Duration // T_heartbeat, worker-side cadence hint
	DeadAfter         time.Duration // T_dead
	SweepInterval     time.Duration // T_sweep
	ResultTTL         time.Duration // T_result_ttl
}

// SolverConfig carries the stall/abandonment tunables from §4.4/§7.7.
type SolverConfig struct {
	StallBaseline     time.Duration // T_stall at N=9
	BaselineN         int
	AbandonAfterRound int // K
}

// Config is the fully resolved process configuration.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Dispatcher DispatcherConfig
	Solver     SolverConfig
}

// Load reads configuration from the environment (after optionally
// loading a .env file, the way local development environments expect)
// and applies the defaults spec.md names where a variable is unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", ""),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvDuration("DATABASE_CONN_MAX_IDLE_TIME", 10*time.Minute),
			Debug:           getEnvBool("DATABASE_DEBUG", false),
		},
		Dispatcher: DispatcherConfig{
			HeartbeatInterval: getEnvDuration("DISPATCHER_HEARTBEAT_INTERVAL", 30*time.Second),
			DeadAfter:         getEnvDuration("DISPATCHER_DEAD_AFTER", 90*time.Second),
			SweepInterval:     getEnvDuration("DISPATCHER_SWEEP_INTERVAL", 60*time.Second),
			ResultTTL:         getEnvDuration("DISPATCHER_RESULT_TTL", time.Hour),
		},
		Solver: SolverConfig{
			StallBaseline:     getEnvDuration("SOLVER_STALL_BASELINE", 90*time.Second),
			BaselineN:         getEnvInt("SOLVER_STALL_BASELINE_N", 9),
			AbandonAfterRound: getEnvInt("SOLVER_ABANDON_AFTER_ROUNDS", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Solver.BaselineN <= 0 {
		return fmt.Errorf("solver baseline N must be positive")
	}
	if c.Solver.AbandonAfterRound <= 0 {
		return fmt.Errorf("solver abandon-after-rounds must be positive")
	}
	return nil
}

// MasterURL returns the MASTER_URL a worker process uses to find the
// master, per spec.md §6.
func MasterURL() string {
	return getEnv("MASTER_URL", "http://localhost:8080")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
