package builtin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/justinlietz93/streamtool"
)

// Store is the SQLite-backed key/value memory behind the memory_* tools.
// Serialization of concurrent access is the store's own concern, exactly as
// the capability contract requires; database/sql handles it.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the memory database. An empty path opens an
// in-process database that lives until Close.
func OpenStore(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	// The in-memory database disappears if its only connection closes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS memory (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init memory store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type memoryWriteArgs struct {
	Key   string `json:"key" jsonschema:"description=Memory key"`
	Value string `json:"value" jsonschema:"description=Value to store"`
}

// MemoryWrite returns the descriptor for the memory_write tool.
func (s *Store) MemoryWrite() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("memory_write", "Store a value under a key in persistent memory.",
		func(ctx context.Context, a memoryWriteArgs) (*streamtool.Result, error) {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO memory (key, value, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				a.Key, a.Value, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			return &streamtool.Result{Content: "stored " + a.Key}, nil
		})
}

type memoryReadArgs struct {
	Key string `json:"key" jsonschema:"description=Memory key"`
}

// MemoryRead returns the descriptor for the memory_read tool.
func (s *Store) MemoryRead() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("memory_read", "Read a value from persistent memory.",
		func(ctx context.Context, a memoryReadArgs) (*streamtool.Result, error) {
			var value string
			err := s.db.QueryRowContext(ctx,
				`SELECT value FROM memory WHERE key = ?`, a.Key).Scan(&value)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("no memory stored under %q", a.Key)
			}
			if err != nil {
				return nil, err
			}
			return &streamtool.Result{Content: value}, nil
		})
}

type memoryListArgs struct{}

// MemoryList returns the descriptor for the memory_list tool.
func (s *Store) MemoryList() (streamtool.Descriptor, error) {
	return streamtool.NewCapability("memory_list", "List all keys in persistent memory.",
		func(ctx context.Context, _ memoryListArgs) (*streamtool.Result, error) {
			rows, err := s.db.QueryContext(ctx,
				`SELECT key FROM memory ORDER BY key`)
			if err != nil {
				return nil, err
			}
			defer rows.Close()
			var keys []string
			for rows.Next() {
				var k string
				if err := rows.Scan(&k); err != nil {
					return nil, err
				}
				keys = append(keys, k)
			}
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return &streamtool.Result{Content: strings.Join(keys, "\n"), Data: keys}, nil
		})
}
