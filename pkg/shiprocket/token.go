package shiprocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shoaibhasann/zahra/pkg/logger"
)

// Shiprocket tokens are valid for ten days.
const tokenLifetime = 240 * time.Hour

const tokenCacheKey = "shiprocket:token"
const tokenLockKey = "shiprocket:token:lock"

// A caller that loses the lease race re-attempts acquisition a bounded
// number of times with jittered waits, so a holder that died without
// publishing does not strand every other caller for a full lock TTL.
const (
	lockAcquireAttempts = 5
	lockAcquireBaseWait = 50 * time.Millisecond
)

// TokenStore persists the shared API token across processes.
type TokenStore interface {
	// Get returns the cached token, or an empty token with no error when the
	// cache is cold.
	Get(ctx context.Context) (token string, expiresAt time.Time, err error)
	Set(ctx context.Context, token string, expiresAt time.Time) error
	Clear(ctx context.Context) error
}

// Locker grants short exclusive leases, so only one process logs in at a
// time across the fleet.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Authenticator performs the credential login.
type Authenticator interface {
	Login(ctx context.Context) (token string, err error)
}

// TokenProvider hands out a valid shared token. Refreshes are deduplicated
// twice: a mutex collapses concurrent callers in this process, and a Redis
// lease collapses them across processes. A caller that loses the lease race
// re-attempts acquisition with jittered waits, then polls the store for the
// winner's token instead of logging in itself.
type TokenProvider struct {
	store  TokenStore
	locker Locker
	auth   Authenticator
	cfg    *Config

	mu sync.Mutex
}

func NewTokenProvider(store TokenStore, locker Locker, auth Authenticator, cfg *Config) *TokenProvider {
	return &TokenProvider{
		store:  store,
		locker: locker,
		auth:   auth,
		cfg:    cfg,
	}
}

// GetValid returns a token that will outlive the safety gap, refreshing it
// when needed.
func (p *TokenProvider) GetValid(ctx context.Context) (string, error) {
	token, expiresAt, err := p.store.Get(ctx)
	if err != nil {
		return "", err
	}
	if p.usable(token, expiresAt) {
		return token, nil
	}
	return p.refresh(ctx)
}

// ForceRefresh discards the cached token and obtains a fresh one. Called
// after the API rejects a token that looked valid.
func (p *TokenProvider) ForceRefresh(ctx context.Context) (string, error) {
	if err := p.store.Clear(ctx); err != nil {
		logger.Warn("Failed to clear cached shipping token", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return p.refresh(ctx)
}

func (p *TokenProvider) usable(token string, expiresAt time.Time) bool {
	return token != "" && time.Until(expiresAt) > p.cfg.TokenSafetyGap
}

func (p *TokenProvider) refresh(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have refreshed while we waited on the mutex.
	token, expiresAt, err := p.store.Get(ctx)
	if err == nil && p.usable(token, expiresAt) {
		return token, nil
	}

	for attempt := 1; attempt <= lockAcquireAttempts; attempt++ {
		release, acquired, err := p.locker.Acquire(ctx, tokenLockKey, p.cfg.TokenLockTTL)
		if err != nil {
			return "", err
		}
		if acquired {
			defer release()
			return p.loginAndCache(ctx)
		}

		wait := lockAcquireBaseWait + time.Duration(rand.Int63n(int64(lockAcquireBaseWait)))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}

		// The holder may have published between attempts.
		token, expiresAt, err = p.store.Get(ctx)
		if err == nil && p.usable(token, expiresAt) {
			return token, nil
		}
	}
	return p.awaitWinner(ctx)
}

func (p *TokenProvider) loginAndCache(ctx context.Context) (string, error) {
	token, err := p.auth.Login(ctx)
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if err := p.store.Set(ctx, token, expiresAt); err != nil {
		logger.Warn("Failed to cache shipping token", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Shipping token refreshed", map[string]interface{}{
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	return token, nil
}

// awaitWinner polls the store until the lease holder has published a fresh
// token, bounded by the lease TTL.
func (p *TokenProvider) awaitWinner(ctx context.Context) (string, error) {
	deadline := time.Now().Add(p.cfg.TokenLockTTL)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		token, expiresAt, err := p.store.Get(ctx)
		if err != nil {
			return "", err
		}
		if p.usable(token, expiresAt) {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: timed out waiting for token refresh", ErrAuthFailed)
}

type cachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type redisTokenStore struct {
	client *goredis.Client
}

// NewRedisTokenStore persists the token as a JSON value expiring with the
// token itself.
func NewRedisTokenStore(client *goredis.Client) TokenStore {
	return &redisTokenStore{client: client}
}

func (s *redisTokenStore) Get(ctx context.Context) (string, time.Time, error) {
	raw, err := s.client.Get(ctx, tokenCacheKey).Result()
	if errors.Is(err, goredis.Nil) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}

	var cached cachedToken
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return "", time.Time{}, nil
	}
	return cached.Token, cached.ExpiresAt, nil
}

func (s *redisTokenStore) Set(ctx context.Context, token string, expiresAt time.Time) error {
	raw, err := json.Marshal(cachedToken{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tokenCacheKey, raw, time.Until(expiresAt)).Err()
}

func (s *redisTokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, tokenCacheKey).Err()
}
