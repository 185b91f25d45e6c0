package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process using the same Redis server
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    *logrus.Logger
}

// NewRedis creates a Locker backed by client. Locks expire after ttl if never released
func NewRedis(client *redis.Client, ttl time.Duration, log *logrus.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: "leaguebracket:lock:",
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		log:    log,
	}
}

// NewRedisFromURL connects to the Redis server at url and checks it answers
func NewRedisFromURL(ctx context.Context, url string, ttl time.Duration, log *logrus.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedis(client, ttl, log), nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := xid.New().String()
	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to take lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{k}, token).Err(); err != nil && err != redis.Nil {
			r.log.WithError(err).WithField("lock", key).Warn("failed to release lock")
		}
	}, nil
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}
