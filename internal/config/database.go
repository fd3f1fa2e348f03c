package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config, logger *zap.Logger) (*sqlx.DB, error) {
	switch cfg.Database.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// A single connection keeps SQLite to one writer and makes every
	// transaction see the previous commit.
	if cfg.Database.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}

	// Create tables if they don't exist
	if err := createTables(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB, logger *zap.Logger) error {
	tables := sqliteTables
	if db.DriverName() == DriverPostgres {
		tables = postgresTables
	}

	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cg_transactions_asset ON cg_transactions(asset_id, id)",
		"CREATE INDEX IF NOT EXISTS idx_cg_transactions_employee ON cg_transactions(employee_id)",
		"CREATE INDEX IF NOT EXISTS idx_cg_transactions_timestamp ON cg_transactions(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_capital_goods_category ON capital_goods(category_id)",
		"CREATE INDEX IF NOT EXISTS idx_activity_log_timestamp ON activity_log(timestamp)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// indexes are not critical
			logger.Warn("failed to create index", zap.String("sql", idx), zap.Error(err))
		}
	}

	return nil
}

var sqliteTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS capital_goods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Available',
		acquisition_date TIMESTAMP NOT NULL,
		category_id INTEGER REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS cg_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id INTEGER NOT NULL REFERENCES capital_goods(id),
		employee_id INTEGER REFERENCES employees(id),
		transaction_type TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		condition_notes TEXT NOT NULL DEFAULT '',
		logged_by_user_id INTEGER REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		action TEXT NOT NULL,
		details TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	)`,
}

var postgresTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS capital_goods (
		id BIGSERIAL PRIMARY KEY,
		code VARCHAR(255) UNIQUE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'Available',
		acquisition_date TIMESTAMP NOT NULL,
		category_id BIGINT REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS cg_transactions (
		id BIGSERIAL PRIMARY KEY,
		asset_id BIGINT NOT NULL REFERENCES capital_goods(id),
		employee_id BIGINT REFERENCES employees(id),
		transaction_type VARCHAR(16) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		condition_notes TEXT NOT NULL DEFAULT '',
		logged_by_user_id BIGINT REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		action VARCHAR(64) NOT NULL,
		details TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	)`,
}
