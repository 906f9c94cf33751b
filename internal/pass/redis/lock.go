package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getClaimDuration returns the redemption claim TTL from the environment or
// the default. The claim only needs to outlive a pair of near-simultaneous
// scans; the database conditional update is the durable guard.
func (r *Redis) getClaimDuration() time.Duration {
	defaultDuration := 30 * time.Second

	ttlStr := os.Getenv("REDEEM_CLAIM_TTL_SECONDS")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: invalid REDEEM_CLAIM_TTL_SECONDS value '" + ttlStr + "', using default 30 seconds")
		return defaultDuration
	}
	return time.Duration(ttlSec) * time.Second
}

// ClaimRedemption takes the short-lived claim on a pass before the database
// update. Only the first scanner gets it; the race loser is turned away
// without touching the database.
func (r *Redis) ClaimRedemption(ctx context.Context, passID string) (bool, error) {
	key := "redeem_claim:" + passID
	return r.Client.SetNX(ctx, key, 1, r.getClaimDuration()).Result()
}

// ReleaseClaim drops a claim early, e.g. when the conditional update failed
// for a reason other than losing the race.
func (r *Redis) ReleaseClaim(ctx context.Context, passID string) error {
	_, err := r.Client.Del(ctx, "redeem_claim:"+passID).Result()
	return err
}

func quotaKey(storeID string, windowStart time.Time) string {
	return fmt.Sprintf("quota:%s:%d", storeID, windowStart.Unix())
}

// ReserveQuota atomically claims qty units of a store's sales-day quota.
// The counter lives until the window boundary and two buyers racing for the
// last pass cannot both land under maxPasses. A reservation that would
// exceed the cap is rolled back and refused.
func (r *Redis) ReserveQuota(ctx context.Context, storeID string, windowStart, windowEnd time.Time, qty, maxPasses int) (bool, error) {
	key := quotaKey(storeID, windowStart)

	total, err := r.Client.IncrBy(ctx, key, int64(qty)).Result()
	if err != nil {
		return false, err
	}
	if total == int64(qty) {
		if err := r.Client.ExpireAt(ctx, key, windowEnd).Err(); err != nil {
			r.Logger.Println("REDIS: failed to set quota key expiry:", err)
		}
	}

	if total > int64(maxPasses) {
		if err := r.Client.DecrBy(ctx, key, int64(qty)).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ReleaseQuota returns reserved units when a checkout definitively fails
// after reservation.
func (r *Redis) ReleaseQuota(ctx context.Context, storeID string, windowStart time.Time, qty int) error {
	return r.Client.DecrBy(ctx, quotaKey(storeID, windowStart), int64(qty)).Err()
}
