package duckdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

//go:embed schema.sql
var schemaSQL string

// Store owns the DuckDB database holding the metrics table.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	QueryTimeout time.Duration

	// lastStamp is the newest stored ts; guarded by mu.
	lastStamp time.Time
}

// NewStore opens or creates a DuckDB database and makes sure the metrics
// table exists. If dbPath is empty, an in-memory database is used.
// An optional queryTimeout can be passed; it defaults to 30s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	var last sql.NullTime
	if err := db.QueryRow("SELECT max(ts) FROM metrics").Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("read newest timestamp: %w", err)
	}

	return &Store{
		db:           db,
		dbPath:       dbPath,
		QueryTimeout: qt,
		lastStamp:    last.Time.UTC(),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// queryCtx bounds a store call by both the caller's context and the
// configured query timeout.
func (s *Store) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.QueryTimeout)
}
