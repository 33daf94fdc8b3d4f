package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// JSONFileStore keeps subscriptions in a single JSON array file. Writes go to a
// temporary file that is renamed over the original.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileStore creates the file with an empty list when it does not exist.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		if err := s.write([]models.Subscription{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return s, nil
}

func (s *JSONFileStore) Close() error { return nil }

// Add appends a subscription.
func (s *JSONFileStore) Add(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.read()
	if err != nil {
		return err
	}
	sub = normalize(sub)
	for _, existing := range subs {
		if NormalizeEmail(existing.Email) == sub.Email && NormalizeTicker(existing.Ticker) == sub.Ticker {
			return fmt.Errorf("%s for %s: %w", sub.Email, sub.Ticker, apperrors.ErrAlreadySubscribed)
		}
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return s.write(append(subs, sub))
}

// Remove deletes a subscription.
func (s *JSONFileStore) Remove(_ context.Context, email, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.read()
	if err != nil {
		return err
	}
	email, ticker = NormalizeEmail(email), NormalizeTicker(ticker)

	kept := subs[:0]
	for _, sub := range subs {
		if NormalizeEmail(sub.Email) == email && NormalizeTicker(sub.Ticker) == ticker {
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == len(subs) {
		return fmt.Errorf("%s for %s: %w", email, ticker, apperrors.ErrSubscriptionNotFound)
	}
	return s.write(kept)
}

// List returns all subscriptions in file order.
func (s *JSONFileStore) List(_ context.Context) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *JSONFileStore) read() ([]models.Subscription, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}
	subs := []models.Subscription{}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return subs, nil
}

func (s *JSONFileStore) write(subs []models.Subscription) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode subscriptions: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write subscriptions: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace subscriptions: %w", err)
	}
	return nil
}
