package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"loyalty-wallet/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// cardsKey is the fixed key the serialized collection is stored under.
const cardsKey = "cards"

// SQLiteLocalStore implements LocalStore as a single serialized collection in
// a SQLite key-value table.
type SQLiteLocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewSQLiteLocalStore opens (and creates if needed) the database at dbPath.
func NewSQLiteLocalStore(dbPath string, logger *zap.Logger) (*SQLiteLocalStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createLocalTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger != nil {
		logger.Info("local store initialized", zap.String("path", dbPath))
	}
	return &SQLiteLocalStore{db: db, logger: logger}, nil
}

func createLocalTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS wallet_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// LoadAll returns the stored collection in its persisted order.
func (s *SQLiteLocalStore) LoadAll(ctx context.Context) (model.Cards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM wallet_kv WHERE key = ?`, cardsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Cards{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return decodeCards([]byte(raw))
}

// ReplaceAll overwrites the stored collection.
func (s *SQLiteLocalStore) ReplaceAll(ctx context.Context, cards model.Cards) error {
	data, err := encodeCards(cards)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wallet_kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`, cardsKey, string(data))
	if err != nil {
		return fmt.Errorf("failed to replace cards: %w", err)
	}
	return nil
}

// Stats returns the number of stored cards and the database size.
func (s *SQLiteLocalStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	cards, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to read page size: %w", err)
	}

	return map[string]interface{}{
		"total_cards":   len(cards),
		"db_size_bytes": pageCount * pageSize,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteLocalStore) Close() error {
	return s.db.Close()
}

func encodeCards(cards model.Cards) ([]byte, error) {
	if cards == nil {
		cards = model.Cards{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cards: %w", err)
	}
	return data, nil
}

func decodeCards(data []byte) (model.Cards, error) {
	cards := model.Cards{}
	if len(data) == 0 {
		return cards, nil
	}
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	if cards == nil {
		cards = model.Cards{}
	}
	return cards, nil
}

// Ensure SQLiteLocalStore implements LocalStore
var _ LocalStore = (*SQLiteLocalStore)(nil)
