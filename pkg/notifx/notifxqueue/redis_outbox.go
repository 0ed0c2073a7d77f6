package notifxqueue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readyKey     = "notifx:outbox:ready"
	scheduledKey = "notifx:outbox:scheduled"
)

// RedisOutbox implements Outbox backed by Redis. Ready envelopes live in a
// list consumed with BRPOP; retries wait in a sorted set scored by their
// redelivery time.
type RedisOutbox struct {
	rdb *redis.Client
}

// NewRedisOutbox creates a Redis-backed outbox.
func NewRedisOutbox(rdb *redis.Client) *RedisOutbox {
	return &RedisOutbox{rdb: rdb}
}

func (o *RedisOutbox) Enqueue(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return queueErrors.NewWithCause(ErrEnqueue, err)
	}
	if err := o.rdb.LPush(ctx, readyKey, data).Err(); err != nil {
		return queueErrors.NewWithCause(ErrEnqueue, err).WithDetail("envelope_id", env.ID)
	}
	return nil
}

func (o *RedisOutbox) Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	result, err := o.rdb.BRPop(ctx, timeout, readyKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // timeout, nothing ready
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, queueErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] = key, result[1] = envelope JSON
	var env Envelope
	if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
		return nil, queueErrors.NewWithCause(ErrDecode, err)
	}
	return &env, nil
}

func (o *RedisOutbox) Requeue(ctx context.Context, env Envelope, delay time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return queueErrors.NewWithCause(ErrRequeue, err).WithDetail("envelope_id", env.ID)
	}

	score := float64(time.Now().UTC().Add(delay).Unix())
	if err := o.rdb.ZAdd(ctx, scheduledKey, redis.Z{Score: score, Member: string(data)}).Err(); err != nil {
		return queueErrors.NewWithCause(ErrRequeue, err).WithDetail("envelope_id", env.ID)
	}
	return nil
}

// promoteScript atomically moves due envelopes from the scheduled set to
// the ready list.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local ready_key = KEYS[2]
local now = tonumber(ARGV[1])
local due = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #due > 0 then
    for _, member in ipairs(due) do
        redis.call('LPUSH', ready_key, member)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #due
`)

func (o *RedisOutbox) Promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	err := promoteScript.Run(ctx, o.rdb, []string{scheduledKey, readyKey}, now).Err()
	if err != nil && err != redis.Nil {
		return queueErrors.NewWithCause(ErrPromote, err)
	}
	return nil
}
