package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"wellness-appointments/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

const (
	ReminderLedgerKeyPrefix = "reminder:sent:"
	ReminderOwnerKeyPrefix  = "reminder:owner:"

	// How long a claim outlives the reminder fire time
	claimGrace = time.Hour
	// Minimum lifetime of a claim whose fire time is already close
	minClaimTTL = time.Minute
)

// claimScript sets the claim with NX and, when it was free, indexes the key under its
// owner scored by fire time. Index entries older than ARGV[4] are pruned and the index
// lives at least as long as its newest claim.
//
// KEYS[1] claim key, KEYS[2] owner index
// ARGV[1] ttl ms, ARGV[2] fire time unix, ARGV[3] reminder key, ARGV[4] prune before unix
var claimScript = redis.NewScript(`
	if not redis.call('SET', KEYS[1], ARGV[2], 'NX', 'PX', ARGV[1]) then
		return 0
	end
	redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
	redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', '(' .. ARGV[4])
	if redis.call('PTTL', KEYS[2]) < tonumber(ARGV[1]) then
		redis.call('PEXPIRE', KEYS[2], ARGV[1])
	end
	return 1
`)

// RedisReminderLedger records claimed reminder keys with SET NX so that a reminder is
// submitted at most once across evaluations and across processes. Claims are indexed
// per owner so reminders that are no longer due can be found and retracted.
type RedisReminderLedger struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisReminderLedger(client *redis.Client) *RedisReminderLedger {
	return &RedisReminderLedger{client: client, now: time.Now}
}

// Claim marks the reminder as submitted until its fire time plus a grace period.
// Returns false when it was already claimed.
func (l *RedisReminderLedger) Claim(ctx context.Context, reminder entity.Reminder) (bool, error) {
	key := reminder.Key()
	now := l.now()
	ttl := reminder.FireAt.Add(claimGrace).Sub(now)
	if ttl < minClaimTTL {
		ttl = minClaimTTL
	}

	claimed, err := claimScript.Run(ctx, l.client,
		[]string{ReminderLedgerKeyPrefix + key, ownerKey(reminder.UserID)},
		ttl.Milliseconds(),
		reminder.FireAt.Unix(),
		key,
		now.Add(-claimGrace).Unix(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("claim reminder %s: %w", key, err)
	}
	return claimed == 1, nil
}

// Release forgets a claim so the reminder can be submitted again
func (l *RedisReminderLedger) Release(ctx context.Context, owner, key string) error {
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ReminderLedgerKeyPrefix+key)
		pipe.ZRem(ctx, ownerKey(owner), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("release reminder %s: %w", key, err)
	}
	return nil
}

// Outstanding lists the claimed keys of owner that fire after the given time
func (l *RedisReminderLedger) Outstanding(ctx context.Context, owner string, after time.Time) ([]string, error) {
	keys, err := l.client.ZRangeByScore(ctx, ownerKey(owner), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(after.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list reminders of %s: %w", owner, err)
	}
	return keys, nil
}

// IsClaimed reports whether key still holds a claim
func (l *RedisReminderLedger) IsClaimed(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, ReminderLedgerKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check reminder %s: %w", key, err)
	}
	return n == 1, nil
}

func ownerKey(owner string) string {
	return ReminderOwnerKeyPrefix + owner
}
