package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// OutboxKey is a sorted set of entry keys scored by fire time
	OutboxKey = "reminders:outbox"
	// OutboxEntriesKey is a hash of entry key -> JSON payload
	OutboxEntriesKey = "reminders:outbox:entries"
)

// popDueScript takes up to ARGV[2] entries scored at or before ARGV[1] and removes them in
// the same step, so two pollers never deliver the same entry.
var popDueScript = redis.NewScript(`
	local keys = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
	local payloads = {}
	for _, key in ipairs(keys) do
		local payload = redis.call('HGET', KEYS[2], key)
		if payload then
			table.insert(payloads, payload)
		end
		redis.call('ZREM', KEYS[1], key)
		redis.call('HDEL', KEYS[2], key)
	end
	return payloads
`)

// OutboxEntry is a push notification waiting for its fire time. Key is the reminder key
// the entry was filed under, empty for pushes scheduled without one.
type OutboxEntry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key,omitempty"`
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
}

func (e OutboxEntry) member() string {
	if e.Key != "" {
		return e.Key
	}
	return e.ID
}

// RedisNotifier schedules push notifications into a sorted set scored by fire time.
// Entries filed under a reminder key replace an earlier entry with the same key and
// can be retracted until they are due.
type RedisNotifier struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisNotifier(client *redis.Client, log *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log}
}

func (n *RedisNotifier) SchedulePushNotification(ctx context.Context, recipient, title, body string, fireAt time.Time) error {
	return n.ScheduleReminderPush(ctx, "", recipient, title, body, fireAt)
}

// ScheduleReminderPush files the push under key
func (n *RedisNotifier) ScheduleReminderPush(ctx context.Context, key, recipient, title, body string, fireAt time.Time) error {
	entry := OutboxEntry{
		ID:        uuid.NewString(),
		Key:       key,
		Recipient: recipient,
		Title:     title,
		Body:      body,
		FireAt:    fireAt,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal outbox entry: %w", err)
	}

	member := entry.member()
	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, OutboxEntriesKey, member, payload)
		pipe.ZAdd(ctx, OutboxKey, redis.Z{Score: float64(fireAt.Unix()), Member: member})
		return nil
	})
	if err != nil {
		return fmt.Errorf("add outbox entry: %w", err)
	}

	n.log.Debugf("Scheduled push %q for %s at %s", title, recipient, fireAt.Format(time.RFC3339))
	return nil
}

// Retract removes the entry filed under key. Retracting a missing entry is not an error.
func (n *RedisNotifier) Retract(ctx context.Context, key string) error {
	_, err := n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, OutboxKey, key)
		pipe.HDel(ctx, OutboxEntriesKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("retract outbox entry %s: %w", key, err)
	}
	return nil
}

// Due pops at most limit entries whose fire time is at or before now
func (n *RedisNotifier) Due(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	payloads, err := popDueScript.Run(ctx, n.client, []string{OutboxKey, OutboxEntriesKey},
		strconv.FormatInt(now.Unix(), 10), limit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("pop due outbox entries: %w", err)
	}

	entries := make([]OutboxEntry, 0, len(payloads))
	for _, payload := range payloads {
		var entry OutboxEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			n.log.Warnf("Dropping malformed outbox entry: %+v", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
