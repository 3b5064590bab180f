package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "submit_cooldown:"

// CooldownGate is per-user admission control for graded submissions. Admit is
// a single SET NX EX, not a check-then-set pair, so two concurrent calls for
// the same user cannot both pass.
type CooldownGate struct {
	rdb      *redis.Client
	window   time.Duration
	failOpen bool
	logger   *slog.Logger
}

func NewCooldownGate(rdb *redis.Client, window time.Duration, failOpen bool, logger *slog.Logger) *CooldownGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &CooldownGate{rdb: rdb, window: window, failOpen: failOpen, logger: logger}
}

// Admit returns true iff no cooldown entry existed for the user; the winning
// call leaves an entry that expires after the window. When the store is
// unreachable the gate admits (fail-open) unless configured otherwise, so an
// auxiliary store outage cannot block all submissions.
func (g *CooldownGate) Admit(ctx context.Context, userID string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, cooldownKeyPrefix+userID, "cooldown_active", g.window).Result()
	if err != nil {
		if g.failOpen {
			g.logger.Warn("cooldown store unreachable, admitting submission", "user_id", userID, "err", err)
			return true, nil
		}
		return false, fmt.Errorf("cooldown check: %w", err)
	}
	return ok, nil
}

// Window reports the configured cooldown, for client-facing messages.
func (g *CooldownGate) Window() time.Duration {
	return g.window
}
