// Package cache persists the session and the last-seen catalog and
// loan snapshots in a local SQLite file, so the desk app reopens where
// it left off and can show stale data while the first refresh runs.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"bookdesk/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Well-known cache keys.
const (
	keySession = "session"
	keyBooks   = "books"
	keyActive  = "borrows.active"
	keyOverdue = "borrows.overdue"
	keyMine    = "borrows.mine"
)

// ErrNotCached reports a key with no stored snapshot.
var ErrNotCached = errors.New("not cached")

// Cache is a SQLite-backed key-value snapshot store.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache file at path and applies
// pending migrations.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache migrations: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, v any) error {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotCached
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// StoredSession is the persisted login state.
type StoredSession struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// SaveSession persists the credentials issued at login.
func (c *Cache) SaveSession(ctx context.Context, token string, user models.User) error {
	return c.put(ctx, keySession, StoredSession{Token: token, User: user})
}

// LoadSession returns the persisted credentials, ErrNotCached when
// nobody is logged in.
func (c *Cache) LoadSession(ctx context.Context) (StoredSession, error) {
	var s StoredSession
	if err := c.get(ctx, keySession, &s); err != nil {
		return StoredSession{}, err
	}
	return s, nil
}

// ClearSession removes the persisted credentials at logout.
func (c *Cache) ClearSession(ctx context.Context) error {
	return c.delete(ctx, keySession)
}

// SaveBooks stores the last-seen catalog snapshot.
func (c *Cache) SaveBooks(ctx context.Context, books []models.Book) error {
	return c.put(ctx, keyBooks, books)
}

// LoadBooks returns the last-seen catalog snapshot.
func (c *Cache) LoadBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.get(ctx, keyBooks, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// BorrowList names a cached loan list.
type BorrowList string

const (
	ActiveList  BorrowList = keyActive
	OverdueList BorrowList = keyOverdue
	MyList      BorrowList = keyMine
)

// SaveBorrows stores a loan list snapshot.
func (c *Cache) SaveBorrows(ctx context.Context, list BorrowList, borrows []models.Borrow) error {
	return c.put(ctx, string(list), borrows)
}

// LoadBorrows returns a loan list snapshot.
func (c *Cache) LoadBorrows(ctx context.Context, list BorrowList) ([]models.Borrow, error) {
	var borrows []models.Borrow
	if err := c.get(ctx, string(list), &borrows); err != nil {
		return nil, err
	}
	return borrows, nil
}
