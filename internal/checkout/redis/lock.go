package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis guards checkout with a short per-user lock so a double-submitted
// checkout cannot place two orders from the same cart.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// lockDuration returns the checkout lock TTL. The lock only needs to outlive
// one checkout transaction.
func lockDuration() time.Duration {
	defaultDuration := 30 * time.Second

	ttlStr := os.Getenv("CHECKOUT_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSec <= 0 {
		return defaultDuration
	}
	return time.Duration(ttlSec) * time.Second
}

// LockCheckout takes the per-user checkout lock. Returns false when another
// checkout for the same user is already in flight.
func (r *Redis) LockCheckout(ctx context.Context, userID, token string) (bool, error) {
	key := "checkout_lock:" + userID
	return r.Client.SetNX(ctx, key, token, lockDuration()).Result()
}

// UnlockCheckout releases the lock, but only if it still belongs to the
// given token.
func (r *Redis) UnlockCheckout(ctx context.Context, userID, token string) error {
	key := fmt.Sprintf("checkout_lock:%s", userID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
