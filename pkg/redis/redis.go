package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/pkg/logger"
)

var client *redis.Client

// Init initializes the Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// BlacklistToken revokes a JWT until its natural expiry.
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks whether a JWT has been revoked.
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}

// IncrOTPCounter bumps the daily OTP counter for an identity and returns the
// new count. The key expires at the given TTL so the window resets itself.
func IncrOTPCounter(ctx context.Context, identity string, ttl time.Duration) (int64, error) {
	key := fmt.Sprintf("otp:count:%s:%s", time.Now().Format("2006-01-02"), identity)
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// DailyOTPCounter adapts the package-level counter to the narrow interface
// the auth service consumes.
type DailyOTPCounter struct{}

func (DailyOTPCounter) Incr(ctx context.Context, identity string, ttl time.Duration) (int64, error) {
	return IncrOTPCounter(ctx, identity, ttl)
}

// Locker is a distributed mutual-exclusion primitive.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// compareAndDelete releases a lease only when the stored owner still matches,
// so an expired lease taken over by another holder is never released by us.
var compareAndDelete = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

type leaseLock struct {
	client *redis.Client
}

// NewLeaseLock returns a Locker backed by SET NX PX leases on the given
// client.
func NewLeaseLock(c *redis.Client) Locker {
	return &leaseLock{client: c}
}

func (l *leaseLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := compareAndDelete.Run(releaseCtx, l.client, []string{key}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to release lease", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return release, true, nil
}
