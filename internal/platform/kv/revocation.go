package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "token:"

// RevocationList tracks logged-out credentials until their natural expiry.
// Entries carry a TTL equal to the credential's remaining lifetime, so the
// list never holds a token that could no longer pass an expiry check anyway.
type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

func (l *RevocationList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.rdb.Set(ctx, revocationKeyPrefix+token, "blocked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (l *RevocationList) Contains(ctx context.Context, token string) (bool, error) {
	n, err := l.rdb.Exists(ctx, revocationKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
