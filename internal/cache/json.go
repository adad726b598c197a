package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Key namespaces shared by every backend.
const (
	resultNamespace  = "result:"
	sessionNamespace = "session:"
	ratesNamespace   = "rate:"
)

// ResultKey addresses a cached compliance result by input fingerprint.
func ResultKey(fingerprint string) string {
	return resultNamespace + fingerprint
}

// SessionKey addresses a stored session.
func SessionKey(name string) string {
	return sessionNamespace + name
}

// RateKey addresses a rate-limit counter for one window.
func RateKey(scope string, window time.Time) string {
	return fmt.Sprintf("%s%s:%d", ratesNamespace, scope, window.Unix())
}

// GetJSON decodes a cached value into v. It reports false on a miss.
func GetJSON(ctx context.Context, c domain.Cache, tenantID, key string, v any) (bool, error) {
	data, err := c.Get(ctx, tenantID, key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c domain.Cache, tenantID, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s for cache: %w", key, err)
	}
	return c.Set(ctx, tenantID, key, data, ttl)
}
