package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"document-ingest/internal/shared/telemetry"
)

// Profile selects pool defaults for the kind of process opening the record database.
type Profile int

const (
	// ProfileServer covers the queue worker and the diagnostics API.
	ProfileServer Profile = iota
	// ProfileLambda covers one batch per invocation.
	ProfileLambda
	// ProfileMigrate covers one-shot schema commands.
	ProfileMigrate
)

func (p Profile) String() string {
	switch p {
	case ProfileLambda:
		return "lambda"
	case ProfileMigrate:
		return "migrate"
	default:
		return "server"
	}
}

// Options controls the pool backing the Postgres record store.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Defaults returns the pool settings for p before environment overrides.
func (p Profile) Defaults() Options {
	switch p {
	case ProfileLambda:
		return Options{
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 30 * time.Second,
			ConnMaxLifetime: 15 * time.Minute,
			PingTimeout:     3 * time.Second,
		}
	case ProfileMigrate:
		return Options{
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxIdleTime: 2 * time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	default:
		return Options{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 2 * time.Minute,
			ConnMaxLifetime: time.Hour,
			PingTimeout:     5 * time.Second,
		}
	}
}

// IsLambdaRuntime reports whether the process runs inside AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// RuntimeProfile picks ProfileLambda inside Lambda and ProfileServer elsewhere.
func RuntimeProfile() Profile {
	if IsLambdaRuntime() {
		return ProfileLambda
	}
	return ProfileServer
}

// OptionsFor returns the defaults for p with DB_* environment overrides applied.
func OptionsFor(p Profile) Options {
	opts := p.Defaults()
	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"DB_MAX_OPEN_CONNS", intSetter(&opts.MaxOpenConns)},
		{"DB_MAX_IDLE_CONNS", intSetter(&opts.MaxIdleConns)},
		{"DB_CONN_MAX_LIFETIME", durationSetter(&opts.ConnMaxLifetime)},
		{"DB_CONN_MAX_IDLE_TIME", durationSetter(&opts.ConnMaxIdleTime)},
		{"DB_PING_TIMEOUT", durationSetter(&opts.PingTimeout)},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		if err := o.apply(raw); err != nil {
			telemetry.Warn("db.env.invalid", map[string]any{"key": o.key, "error": err.Error()})
		}
	}
	return opts
}

var openDB = sql.Open

// Connect validates the DSN, opens a pgx-backed *sql.DB and pings it.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	parsed, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	database, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(database, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database %s/%s: %w", parsed.Host, parsed.Database, err)
	}

	stats := database.Stats()
	telemetry.Info("db.connected", map[string]any{
		"host":     parsed.Host,
		"database": parsed.Database,
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return database, nil
}

func applyOptions(database *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func intSetter(dst *int) func(string) error {
	return func(raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func durationSetter(dst *time.Duration) func(string) error {
	return func(raw string) error {
		v, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
