package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/upb/library-api/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return WrapDB(db, logger), nil
}

// WrapDB wraps an already opened pool
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema creates the tables and indexes if they do not exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

const schema = `
	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL,
		created_at_utc TIMESTAMPTZ NOT NULL,
		updated_at_utc TIMESTAMPTZ,
		created_by VARCHAR(100) NOT NULL,
		updated_by VARCHAR(100)
	);

	-- Authors table
	CREATE TABLE IF NOT EXISTS authors (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		created_at_utc TIMESTAMPTZ NOT NULL,
		updated_at_utc TIMESTAMPTZ,
		created_by VARCHAR(100) NOT NULL,
		updated_by VARCHAR(100)
	);

	-- Books table
	CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		isbn VARCHAR(32) NOT NULL UNIQUE,
		published_year INTEGER,
		author_id UUID NOT NULL REFERENCES authors(id) ON DELETE RESTRICT,
		created_at_utc TIMESTAMPTZ NOT NULL,
		updated_at_utc TIMESTAMPTZ,
		created_by VARCHAR(100) NOT NULL,
		updated_by VARCHAR(100)
	);

	-- Audit trails table. History survives actor deletion.
	CREATE TABLE IF NOT EXISTS audit_trails (
		id UUID PRIMARY KEY,
		actor_id UUID REFERENCES users(id) ON DELETE SET NULL,
		trail_type VARCHAR(10) NOT NULL CHECK (trail_type IN ('Create', 'Update', 'Delete')),
		timestamp_utc TIMESTAMPTZ NOT NULL,
		entity_name VARCHAR(100) NOT NULL,
		primary_key TEXT,
		old_value TEXT,
		new_value TEXT,
		changed_field VARCHAR(100) NOT NULL
	);

	-- Indexes
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (LOWER(username));
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));
	CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);

	CREATE INDEX IF NOT EXISTS idx_audit_trails_entity ON audit_trails(entity_name, primary_key);
	CREATE INDEX IF NOT EXISTS idx_audit_trails_actor_id ON audit_trails(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_trails_timestamp ON audit_trails(timestamp_utc);
`
