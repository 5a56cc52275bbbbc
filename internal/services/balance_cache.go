package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Asihat/ht-test-task/internal/models"
)

// BalanceCache keeps short-lived account snapshots in redis, keyed by the
// numeric user ID. It is never authoritative: any error on read is treated
// as a miss and a nil client disables the cache, so a redis outage degrades
// to direct reads from the account store.
type BalanceCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewBalanceCache(redisClient *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func (c *BalanceCache) key(userID int64) string {
	return fmt.Sprintf("balance:%d", userID)
}

// Get returns the cached snapshot for userID, or (nil, false) on a miss.
func (c *BalanceCache) Get(ctx context.Context, userID int64) (*models.Account, bool) {
	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[CACHE] Read failed for user %d, falling through to store: %v", userID, err)
		return nil, false
	}

	var account models.Account
	if err := json.Unmarshal(data, &account); err != nil {
		log.Printf("[CACHE] Corrupt entry for user %d, dropping: %v", userID, err)
		c.redis.Del(ctx, c.key(userID))
		return nil, false
	}
	return &account, true
}

// Put stores a snapshot with the configured TTL.
func (c *BalanceCache) Put(ctx context.Context, account *models.Account) {
	if c.redis == nil || account == nil {
		return
	}

	data, err := json.Marshal(account)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(account.UserID), data, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] Write failed for user %d: %v", account.UserID, err)
	}
}

// Invalidate drops the snapshot for userID. Called by every mutating ledger
// operation so staleness stays bounded by the TTL.
func (c *BalanceCache) Invalidate(ctx context.Context, userID int64) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(userID)).Err(); err != nil {
		log.Printf("[CACHE] Invalidate failed for user %d: %v", userID, err)
	}
}
