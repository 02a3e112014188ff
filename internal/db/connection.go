package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB holds the database handle and queries
type DB struct {
	SQL     *sql.DB
	Queries *Queries
}

// NewDB opens a pgx-backed database/sql handle and verifies it with a ping.
// The same handle serves the cookie session store.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return Wrap(conn), nil
}

// Wrap builds a DB around an existing handle.
func Wrap(conn *sql.DB) *DB {
	return &DB{SQL: conn, Queries: New(conn)}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.SQL.Close()
}

// InTx runs fn against queries bound to one transaction. The transaction is
// committed when fn succeeds and rolled back otherwise.
func (db *DB) InTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(db.Queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
