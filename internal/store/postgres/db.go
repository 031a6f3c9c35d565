package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const (
	// DefaultQueryTimeout is applied to individual queries to prevent
	// runaway SQL from holding connections indefinitely.
	DefaultQueryTimeout = 10 * time.Second

	defaultStatementTimeoutMS = 30000
)

type DB struct {
	*sql.DB
}

type Config struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	StatementTimeoutMS int
}

func New(cfg Config) (*DB, error) {
	statementTimeoutMS := cfg.StatementTimeoutMS
	if statementTimeoutMS <= 0 {
		statementTimeoutMS = defaultStatementTimeoutMS
	}

	connURL := appendStatementTimeout(cfg.URL, statementTimeoutMS)

	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{db}, nil
}

// appendStatementTimeout appends statement_timeout to the connection URL
// so it applies to all connections in the pool, not just one session.
func appendStatementTimeout(url string, timeoutMS int) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "options=-c%20statement_timeout%3D" + strconv.Itoa(timeoutMS)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// EnsureSchema creates the oracle's tables when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultQueryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS classification_addresses (
			kind       VARCHAR(16)  NOT NULL,
			address    VARCHAR(128) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, address)
		)
	`); err != nil {
		return fmt.Errorf("create classification_addresses: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS consumed_nonces (
			sender     VARCHAR(128) NOT NULL,
			nonce      VARCHAR(128) NOT NULL,
			granted_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
			PRIMARY KEY (sender, nonce)
		)
	`); err != nil {
		return fmt.Errorf("create consumed_nonces: %w", err)
	}

	return nil
}
