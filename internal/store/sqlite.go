package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// SQLiteStore implements SubscriptionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		ticker TEXT NOT NULL,
		trading_style TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE(email, ticker)
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_ticker ON subscriptions(ticker);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Add inserts a subscription.
func (s *SQLiteStore) Add(ctx context.Context, sub models.Subscription) error {
	sub = normalize(sub)
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (email, ticker, trading_style, created_at) VALUES (?, ?, ?, ?)
	`, sub.Email, sub.Ticker, sub.TradingStyle, sub.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return fmt.Errorf("%s for %s: %w", sub.Email, sub.Ticker, apperrors.ErrAlreadySubscribed)
	}
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// Remove deletes a subscription.
func (s *SQLiteStore) Remove(ctx context.Context, email, ticker string) error {
	email, ticker = NormalizeEmail(email), NormalizeTicker(ticker)

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE email = ? AND ticker = ?
	`, email, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s for %s: %w", email, ticker, apperrors.ErrSubscriptionNotFound)
	}
	return nil
}

// List returns all subscriptions in creation order.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, ticker, trading_style, created_at FROM subscriptions ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.Email, &sub.Ticker, &sub.TradingStyle, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqlErr sqlite3.Error
	return errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
