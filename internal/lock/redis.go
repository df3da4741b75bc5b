package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "lock:"
	pollInterval = 50 * time.Millisecond
)

// RedisLock is one held SETNX lock. Only the holder of its token can
// release it.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
}

// TryLock makes a single attempt to take key for ttl. It reports false
// without error when another holder has it; Redis.Lock retries on top of it.
func TryLock(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (*RedisLock, bool, error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &RedisLock{client: client, key: key, token: token}, true, nil
}

// unlockScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by someone else is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// Unlock releases the lock. It is a no-op when the lock already expired.
func (l *RedisLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

// Redis is a Locker shared by every process talking to the same Redis.
// TTL bounds how long a crashed holder can block others; MaxWait bounds how
// long Lock polls before giving up with ErrTimeout.
type Redis struct {
	Client  *redis.Client
	TTL     time.Duration
	MaxWait time.Duration
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	lockKey := keyPrefix + key
	deadline := time.Now().Add(r.MaxWait)

	for {
		l, ok, err := TryLock(ctx, r.Client, lockKey, r.TTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return l.Unlock, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
