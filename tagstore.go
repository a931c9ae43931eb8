package beapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// TagStore persists player tags by XUID. Dragonfly keeps no tags on its
// entities, so permission tags would otherwise be lost on reconnect.
type TagStore interface {
	// Tags returns the stored tags, or nil if the player has none.
	Tags(ctx context.Context, xuid string) ([]string, error)
	// SetTags replaces the stored tags.
	SetTags(ctx context.Context, xuid string, tags []string) error
}

// MemoryTagStore keeps tags for the lifetime of the process.
type MemoryTagStore struct {
	mu   sync.RWMutex
	tags map[string][]string
}

// NewMemoryTagStore creates an empty in-memory store.
func NewMemoryTagStore() *MemoryTagStore {
	return &MemoryTagStore{tags: make(map[string][]string)}
}

// Tags implements TagStore.
func (s *MemoryTagStore) Tags(_ context.Context, xuid string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tags[xuid]), nil
}

// SetTags implements TagStore.
func (s *MemoryTagStore) SetTags(_ context.Context, xuid string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tags) == 0 {
		delete(s.tags, xuid)
		return nil
	}
	s.tags[xuid] = slices.Clone(tags)
	return nil
}

// SQLiteTagStore stores tags in a SQLite database.
type SQLiteTagStore struct {
	db *sql.DB
}

// OpenSQLiteTagStore opens (creating if needed) the database at path.
func OpenSQLiteTagStore(path string) (*SQLiteTagStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tag store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open tag store: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open tag store: %w", err)
		}
	}

	store := &SQLiteTagStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteTagStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_tags (
		xuid TEXT PRIMARY KEY,
		tags TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init tag store schema: %w", err)
		}
	}
	return nil
}

// Tags implements TagStore.
func (s *SQLiteTagStore) Tags(ctx context.Context, xuid string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT tags FROM player_tags WHERE xuid = ?", xuid).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tags for %s: %w", xuid, err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", xuid, err)
	}
	return tags, nil
}

// SetTags implements TagStore.
func (s *SQLiteTagStore) SetTags(ctx context.Context, xuid string, tags []string) error {
	if len(tags) == 0 {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM player_tags WHERE xuid = ?", xuid); err != nil {
			return fmt.Errorf("clear tags for %s: %w", xuid, err)
		}
		return nil
	}

	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO player_tags (xuid, tags, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(xuid) DO UPDATE SET tags = excluded.tags, updated_at = CURRENT_TIMESTAMP`,
		xuid, string(raw))
	if err != nil {
		return fmt.Errorf("save tags for %s: %w", xuid, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteTagStore) Close() error {
	return s.db.Close()
}
