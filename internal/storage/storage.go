package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Storage is the host store: collections, controls, phases, wallet counters,
// ledger balances and issued tokens. Every mint attempt runs inside one
// transaction, and only one transaction runs at a time.
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and initializes the schema
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers: read-compare-increment of a
	// counter cannot interleave with another attempt
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			collection TEXT PRIMARY KEY,
			creator TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT NOT NULL,
			max_supply INTEGER NOT NULL,
			supply INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS mint_controls (
			collection TEXT PRIMARY KEY REFERENCES collections(collection),
			treasury TEXT NOT NULL,
			max_mints_per_wallet INTEGER NOT NULL,
			cosigner TEXT NOT NULL DEFAULT '',
			primary_admin TEXT NOT NULL DEFAULT '',
			secondary_admin TEXT NOT NULL DEFAULT '',
			fee_value INTEGER NOT NULL,
			fee_is_flat INTEGER NOT NULL,
			fee_recipients TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS phases (
			collection TEXT NOT NULL REFERENCES collections(collection),
			idx INTEGER NOT NULL,
			price_amount INTEGER NOT NULL,
			price_token TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			end_time INTEGER NOT NULL,
			active INTEGER NOT NULL,
			max_mints_per_wallet INTEGER NOT NULL,
			max_mints_total INTEGER NOT NULL,
			current_mints INTEGER NOT NULL DEFAULT 0,
			is_private INTEGER NOT NULL,
			merkle_root TEXT,
			PRIMARY KEY (collection, idx)
		)`,

		`CREATE TABLE IF NOT EXISTS minter_stats (
			key TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			wallet TEXT NOT NULL,
			phase INTEGER,
			mint_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_minter_stats_wallet ON minter_stats(collection, wallet)`,

		`CREATE TABLE IF NOT EXISTS balances (
			account TEXT NOT NULL,
			token TEXT NOT NULL,
			amount INTEGER NOT NULL,
			PRIMARY KEY (account, token)
		)`,

		`CREATE TABLE IF NOT EXISTS issued_tokens (
			token_id TEXT PRIMARY KEY,
			collection TEXT NOT NULL REFERENCES collections(collection),
			owner TEXT NOT NULL,
			number INTEGER NOT NULL,
			phase INTEGER NOT NULL,
			issued_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issued_tokens_owner ON issued_tokens(collection, owner)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// WithTx runs fn in one transaction. Any error from fn rolls back every write
// fn made; a nil return commits them together.
func (s *Storage) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tx is the transactional view handed to WithTx callbacks.
type Tx struct {
	tx *sql.Tx
}

// sqlite integers are signed 64-bit; uint64 values round-trip through int64 bits.
func i64(v uint64) int64 { return int64(v) }
func u64(v int64) uint64 { return uint64(v) }

// Phase windows keep full precision; zero stands for the unset time.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
