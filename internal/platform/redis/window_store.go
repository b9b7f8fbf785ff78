package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/dogadopt-api/internal/ratelimit"
)

// DefaultKeyPrefix namespaces rate limit keys.
const DefaultKeyPrefix = "dogadopt:ratelimit"

// takeScript trims, counts and conditionally records in one server-side step.
// KEYS[1] is the window key. ARGV is now and the trim threshold in Unix
// microseconds, the limit, the member and the key ttl in milliseconds.
// Returns {recorded, count before, oldest score}.
var takeScript = goredis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)

local recorded = 0
if count < limit then
	redis.call('ZADD', key, ARGV[1], ARGV[4])
	recorded = 1
end
if ttl > 0 then
	redis.call('PEXPIRE', key, ttl)
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = ''
if #oldest > 0 then
	oldestScore = oldest[2]
end
return {recorded, count, oldestScore}
`)

// WindowStore keeps each identifier's attempts in a sorted set scored by
// Unix microseconds.
type WindowStore struct {
	client    goredis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewWindowStore creates a WindowStore. ttl bounds how long an idle key
// survives and should be at least the limiter window; zero disables expiry.
func NewWindowStore(client goredis.UniversalClient, keyPrefix string, ttl time.Duration) *WindowStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &WindowStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

var _ ratelimit.Store = (*WindowStore)(nil)

// Take implements ratelimit.Store.Take with a Lua script, so instances
// sharing the redis server see one consistent window.
// Members carry a random suffix so attempts in the same microsecond are all
// counted.
func (s *WindowStore) Take(
	ctx context.Context,
	identifier string,
	limit int,
	window time.Duration,
	now time.Time,
) (ratelimit.Window, error) {
	if window <= 0 {
		return ratelimit.Window{}, errors.New("window must be positive")
	}

	score := strconv.FormatInt(now.UnixMicro(), 10)
	reply, err := takeScript.Run(ctx, s.client, []string{s.key(identifier)},
		score,
		strconv.FormatInt(now.Add(-window).UnixMicro(), 10),
		limit,
		score+"-"+uuid.NewString(),
		s.ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return ratelimit.Window{}, fmt.Errorf("redis take: %w", err)
	}

	return parseTakeReply(reply)
}

func parseTakeReply(reply []any) (ratelimit.Window, error) {
	if len(reply) != 3 {
		return ratelimit.Window{}, fmt.Errorf("redis take: unexpected reply length %d", len(reply))
	}

	recorded, ok := reply[0].(int64)
	if !ok {
		return ratelimit.Window{}, fmt.Errorf("redis take: unexpected recorded value %T", reply[0])
	}
	count, ok := reply[1].(int64)
	if !ok {
		return ratelimit.Window{}, fmt.Errorf("redis take: unexpected count value %T", reply[1])
	}

	result := ratelimit.Window{Recorded: recorded == 1, Count: int(count)}

	raw, _ := reply[2].(string)
	if raw == "" {
		return result, nil
	}
	micros, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ratelimit.Window{}, fmt.Errorf("redis take: parse oldest score: %w", err)
	}
	result.Oldest = time.UnixMicro(int64(micros))
	result.HasOldest = true
	return result, nil
}

func (s *WindowStore) key(identifier string) string {
	return s.keyPrefix + ":" + identifier
}
