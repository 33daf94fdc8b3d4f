// Package store provides subscription persistence interfaces and implementations.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// SubscriptionStore persists daily alert subscriptions. An email may subscribe
// to a ticker at most once; email and ticker compare case-insensitively.
type SubscriptionStore interface {
	// Add stores sub, failing with ErrAlreadySubscribed for a duplicate.
	Add(ctx context.Context, sub models.Subscription) error
	// Remove deletes the subscription, failing with ErrSubscriptionNotFound.
	Remove(ctx context.Context, email, ticker string) error
	// List returns every subscription, oldest first.
	List(ctx context.Context) ([]models.Subscription, error)
	Close() error
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTicker uppercases and trims a ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func normalize(sub models.Subscription) models.Subscription {
	sub.Email = NormalizeEmail(sub.Email)
	sub.Ticker = NormalizeTicker(sub.Ticker)
	sub.TradingStyle = strings.TrimSpace(sub.TradingStyle)
	return sub
}

// GroupByTicker returns subscriptions keyed by ticker and the tickers in
// first-subscribed order.
func GroupByTicker(subs []models.Subscription) (map[string][]models.Subscription, []string) {
	sorted := make([]models.Subscription, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	groups := make(map[string][]models.Subscription)
	var order []string
	for _, sub := range sorted {
		t := NormalizeTicker(sub.Ticker)
		if _, ok := groups[t]; !ok {
			order = append(order, t)
		}
		groups[t] = append(groups[t], sub)
	}
	return groups, order
}
