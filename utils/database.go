package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
)

// SetupDatabase connects to Postgres when databaseURL is set and installs the
// result as DB. An empty URL or a failed connection leaves the in-memory
// store in place so the bot keeps running without persistence.
func SetupDatabase(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		slog.Warn("database_url not set, using in-memory store")
		DB = NewMemoryStore()
		return nil
	}

	pool, err := openPool(ctx, databaseURL)
	if err != nil {
		slog.Error("database unavailable, using in-memory store", tint.Err(err))
		DB = NewMemoryStore()
		return err
	}

	store := NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		slog.Error("schema bootstrap failed, using in-memory store", tint.Err(err))
		DB = NewMemoryStore()
		return err
	}

	DB = store
	slog.Info("database connected")
	return nil
}

// CloseDatabase closes the active store
func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}

func openPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":                    "harbor-bot",
		"timezone":                            "UTC",
		"statement_timeout":                   "30s",
		"idle_in_transaction_session_timeout": "60s",
	}

	connectCtx, cancel := context.WithTimeout(ctx, DefaultDatabaseTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return pool, nil
}

// schema is applied with CREATE ... IF NOT EXISTS on every start
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		wallet BIGINT NOT NULL DEFAULT 0 CHECK (wallet >= 0),
		bank BIGINT NOT NULL DEFAULT 0 CHECK (bank >= 0),
		job TEXT NOT NULL DEFAULT '',
		shifts INTEGER NOT NULL DEFAULT 0,
		xp BIGINT NOT NULL DEFAULT 0,
		last_daily TIMESTAMPTZ,
		last_weekly TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_net_worth ON users((wallet + bank) DESC, user_id)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		user_id BIGINT NOT NULL,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id TEXT PRIMARY KEY,
		ticket_category_id TEXT NOT NULL DEFAULT '',
		ticket_staff_role_id TEXT NOT NULL DEFAULT '',
		ticket_log_channel_id TEXT NOT NULL DEFAULT '',
		suggestion_channel_id TEXT NOT NULL DEFAULT '',
		suggestion_result_channel_id TEXT NOT NULL DEFAULT '',
		verified_role_id TEXT NOT NULL DEFAULT '',
		unverified_role_id TEXT NOT NULL DEFAULT '',
		verification_channel_id TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS counters (
		guild_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (guild_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		channel_id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		claimed_by TEXT NOT NULL DEFAULT '',
		closed_by TEXT NOT NULL DEFAULT '',
		transcript_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		closed_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_open_owner ON tickets(guild_id, owner_id) WHERE status = 'open'`,
	`CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		messages INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		guild_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		author_id TEXT NOT NULL,
		channel_id TEXT NOT NULL DEFAULT '',
		message_id TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		upvoters TEXT[] NOT NULL DEFAULT '{}',
		downvoters TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'pending',
		reviewer_id TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		decided_at TIMESTAMPTZ,
		PRIMARY KEY (guild_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS jackpots (
		id INTEGER PRIMARY KEY,
		amount BIGINT NOT NULL DEFAULT 0
	)`,
}
