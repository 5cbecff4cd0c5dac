package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("secret not found")

// Store is a key/value secret store.
type Store interface {
	Get(ctx context.Context, name string, withDecryption bool) (string, error)
	// Put overwrites any existing value.
	Put(ctx context.Context, name, value string) error
}

type Reader interface {
	Get(ctx context.Context, name string, withDecryption bool) (string, error)
}

// GetRequired returns the decrypted value of name, failing when it is absent or empty.
func GetRequired(ctx context.Context, store Reader, name string) (string, error) {
	value, err := store.Get(ctx, name, true)
	if err != nil {
		return "", fmt.Errorf("required parameter %s is missing or could not be retrieved: %w", name, err)
	}
	if value == "" {
		return "", fmt.Errorf("required parameter %s is empty: %w", name, ErrNotFound)
	}
	return value, nil
}

// GetOptional returns the decrypted value of name, or "" when it cannot be read.
func GetOptional(ctx context.Context, store Reader, name string) string {
	value, err := store.Get(ctx, name, true)
	if err != nil {
		zap.L().Warn("failed to get parameter", zap.String("parameter", name), zap.Error(err))
		return ""
	}
	return value
}

// ParseList splits a comma separated value into trimmed, non-empty items.
func ParseList(value string) []string {
	items := lo.Map(strings.Split(value, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Filter(items, func(item string, _ int) bool {
		return item != ""
	})
}
