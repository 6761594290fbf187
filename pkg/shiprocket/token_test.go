package shiprocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	gets      int
}

func (s *memoryTokenStore) Get(ctx context.Context) (string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	return s.token, s.expiresAt, nil
}

func (s *memoryTokenStore) Set(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	return nil
}

func (s *memoryTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	return nil
}

type memoryLocker struct {
	mu   sync.Mutex
	held bool
}

func (l *memoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
	}, true, nil
}

type countingAuth struct {
	mu     sync.Mutex
	logins int
	delay  time.Duration
}

func (a *countingAuth) Login(ctx context.Context) (string, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logins++
	return "token-1", nil
}

func (a *countingAuth) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logins
}

func testTokenConfig() *Config {
	return &Config{
		BaseURL:        "https://example.invalid",
		Email:          "api@example.com",
		Password:       "secret",
		TokenLockTTL:   5 * time.Second,
		TokenSafetyGap: 2 * time.Minute,
	}
}

func TestTokenProvider_GetValid_ColdCacheLogsIn(t *testing.T) {
	store := &memoryTokenStore{}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, testTokenConfig())

	token, err := provider.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, auth.count())

	// Expiry carries the full token lifetime.
	assert.WithinDuration(t, time.Now().Add(tokenLifetime), store.expiresAt, time.Minute)
}

func TestTokenProvider_GetValid_CacheHitSkipsLogin(t *testing.T) {
	store := &memoryTokenStore{
		token:     "cached",
		expiresAt: time.Now().Add(time.Hour),
	}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, testTokenConfig())

	token, err := provider.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token)
	assert.Equal(t, 0, auth.count())
}

func TestTokenProvider_GetValid_RefreshesInsideSafetyGap(t *testing.T) {
	// Still technically valid, but closer to expiry than the safety gap.
	store := &memoryTokenStore{
		token:     "stale",
		expiresAt: time.Now().Add(30 * time.Second),
	}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, testTokenConfig())

	token, err := provider.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, auth.count())
}

func TestTokenProvider_ConcurrentCallersShareOneLogin(t *testing.T) {
	store := &memoryTokenStore{}
	auth := &countingAuth{delay: 50 * time.Millisecond}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, testTokenConfig())

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := provider.GetValid(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, auth.count())
	for _, token := range tokens {
		assert.Equal(t, "token-1", token)
	}
}

func TestTokenProvider_LeaseLoserAwaitsWinner(t *testing.T) {
	// The lock is already held elsewhere; the winner publishes shortly after.
	store := &memoryTokenStore{}
	locker := &memoryLocker{held: true}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, locker, auth, testTokenConfig())

	go func() {
		time.Sleep(300 * time.Millisecond)
		store.Set(context.Background(), "winner-token", time.Now().Add(time.Hour))
	}()

	token, err := provider.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "winner-token", token)
	assert.Equal(t, 0, auth.count())
}

func TestTokenProvider_LeaseLoserTimesOut(t *testing.T) {
	cfg := testTokenConfig()
	cfg.TokenLockTTL = 500 * time.Millisecond

	provider := NewTokenProvider(&memoryTokenStore{}, &memoryLocker{held: true}, &countingAuth{}, cfg)

	_, err := provider.GetValid(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestTokenProvider_LeaseLoserReacquiresAbandonedLock(t *testing.T) {
	// The holder dies without publishing a token; its lease lapses while the
	// loser is still re-attempting acquisition, so the loser logs in itself.
	store := &memoryTokenStore{}
	locker := &memoryLocker{held: true}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, locker, auth, testTokenConfig())

	go func() {
		time.Sleep(120 * time.Millisecond)
		locker.mu.Lock()
		locker.held = false
		locker.mu.Unlock()
	}()

	token, err := provider.GetValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, auth.count())
	assert.Equal(t, "token-1", store.token)
}

func TestTokenProvider_ForceRefresh(t *testing.T) {
	store := &memoryTokenStore{
		token:     "revoked",
		expiresAt: time.Now().Add(time.Hour),
	}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, testTokenConfig())

	token, err := provider.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, auth.count())
	assert.Equal(t, "token-1", store.token)
}
