package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-wallet/internal/model"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLRemoteStore implements RemoteStore on a MySQL cards table.
type MySQLRemoteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLRemoteStore connects to MySQL and creates the cards table.
func NewMySQLRemoteStore(dsn string, logger *zap.Logger) (*MySQLRemoteStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS cards (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		retailer VARCHAR(128) NOT NULL,
		country CHAR(2) NOT NULL,
		nickname VARCHAR(255) NOT NULL,
		value TEXT NOT NULL,
		format VARCHAR(32) NOT NULL DEFAULT '',
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		INDEX idx_cards_user (user_id)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("mysql remote store initialized")
	return &MySQLRemoteStore{db: db, logger: logger}, nil
}

// Pull returns every card of the user.
func (s *MySQLRemoteStore) Pull(ctx context.Context, identity model.Identity) (model.Cards, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, retailer, country, nickname, value, format, created_at, updated_at
		FROM cards WHERE user_id = ?`, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// Upsert writes cards in a single transaction. Rows owned by another user keep
// their content.
func (s *MySQLRemoteStore) Upsert(ctx context.Context, identity model.Identity, cards model.Cards) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, user_id, retailer, country, nickname, value, format, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			retailer = IF(user_id = VALUES(user_id), VALUES(retailer), retailer),
			country = IF(user_id = VALUES(user_id), VALUES(country), country),
			nickname = IF(user_id = VALUES(user_id), VALUES(nickname), nickname),
			value = IF(user_id = VALUES(user_id), VALUES(value), value),
			format = IF(user_id = VALUES(user_id), VALUES(format), format),
			created_at = IF(user_id = VALUES(user_id), VALUES(created_at), created_at),
			updated_at = IF(user_id = VALUES(user_id), VALUES(updated_at), updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cards {
		r := toRow(identity.UserID, c)
		if _, err := stmt.ExecContext(ctx, r.ID, r.UserID, r.Retailer, r.Country, r.Nickname, r.Value, r.Format, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert card %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Name returns the backend name.
func (s *MySQLRemoteStore) Name() string { return "mysql" }

// Close closes the database connection.
func (s *MySQLRemoteStore) Close() error {
	return s.db.Close()
}

// Ensure MySQLRemoteStore implements RemoteStore
var _ RemoteStore = (*MySQLRemoteStore)(nil)
