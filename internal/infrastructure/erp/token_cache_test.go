package erp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

// ---------------------------------------------------------------------------
// Caching Tests
// ---------------------------------------------------------------------------

func TestTokenCache_Acquire_CachesToken(t *testing.T) {
	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		calls.Add(1)
		return AuthResult{Token: "tok-1", ExpiresIn: durationPtr(time.Hour)}, nil
	}

	cache := NewTokenCache(auth, nil)

	cred1, err := cache.Acquire(context.Background())
	require.NoError(t, err)
	cred2, err := cache.Acquire(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-1", cred1.Token)
	assert.Equal(t, cred1, cred2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenCache_Acquire_RefreshesAfterExpiry(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		n := calls.Add(1)
		if n == 1 {
			return AuthResult{Token: "tok-1", ExpiresIn: durationPtr(time.Hour)}, nil
		}
		return AuthResult{Token: "tok-2", ExpiresIn: durationPtr(time.Hour)}, nil
	}

	cache := NewTokenCache(auth, nil, WithClock(clock))

	cred, err := cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred.Token)

	// Still valid just inside the margin-adjusted window
	now = now.Add(time.Hour - defaultSafetyMargin - time.Second)
	cred, err = cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred.Token)
	assert.Equal(t, int32(1), calls.Load())

	// Past the window the cache refreshes
	now = now.Add(2 * time.Second)
	cred, err = cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", cred.Token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_ExpiryComputation(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		hint      *time.Duration
		wantDelta time.Duration
		options   []TokenCacheOption
	}{
		{
			name:      "hint minus safety margin",
			hint:      durationPtr(time.Hour),
			wantDelta: time.Hour - defaultSafetyMargin,
		},
		{
			name:      "short hint floored at minimum validity",
			hint:      durationPtr(5 * time.Second),
			wantDelta: defaultMinValidity,
		},
		{
			name:      "hint equal to margin floored at minimum validity",
			hint:      durationPtr(defaultSafetyMargin),
			wantDelta: defaultMinValidity,
		},
		{
			name:      "no hint uses default validity minus safety margin",
			hint:      nil,
			wantDelta: defaultDefaultValidity - defaultSafetyMargin,
		},
		{
			name:      "no hint with default validity below margin floored",
			hint:      nil,
			wantDelta: defaultMinValidity,
			options:   []TokenCacheOption{WithDefaultValidity(defaultSafetyMargin)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := func(ctx context.Context) (AuthResult, error) {
				return AuthResult{Token: "tok", ExpiresIn: tt.hint}, nil
			}
			opts := append([]TokenCacheOption{WithClock(func() time.Time { return now })}, tt.options...)
			cache := NewTokenCache(auth, nil, opts...)

			cred, err := cache.Acquire(context.Background())
			require.NoError(t, err)
			assert.Equal(t, now.Add(tt.wantDelta), cred.ExpiresAt)
		})
	}
}

func TestTokenCache_Options(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	auth := func(ctx context.Context) (AuthResult, error) {
		return AuthResult{Token: "tok"}, nil
	}

	cache := NewTokenCache(auth, nil,
		WithSafetyMargin(time.Minute),
		WithMinValidity(30*time.Second),
		WithDefaultValidity(5*time.Minute),
		WithClock(func() time.Time { return now }))

	cred, err := cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(4*time.Minute), cred.ExpiresAt)
}

// ---------------------------------------------------------------------------
// Concurrency Tests
// ---------------------------------------------------------------------------

func TestTokenCache_ConcurrentAcquire_SingleAuthCall(t *testing.T) {
	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		calls.Add(1)
		// Hold the flight open long enough for every goroutine to queue
		time.Sleep(50 * time.Millisecond)
		return AuthResult{Token: "tok-1", ExpiresIn: durationPtr(time.Hour)}, nil
	}

	cache := NewTokenCache(auth, nil)

	const goroutines = 20
	var wg sync.WaitGroup
	tokens := make([]string, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred, err := cache.Acquire(context.Background())
			tokens[i] = cred.Token
			errs[i] = err
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
}

func TestTokenCache_FailurePropagatesToAllWaiters(t *testing.T) {
	authErr := errors.New("erp: boom")

	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return AuthResult{}, authErr
	}

	cache := NewTokenCache(auth, nil)

	const goroutines = 10
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Acquire(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < goroutines; i++ {
		assert.ErrorIs(t, errs[i], authErr)
	}
}

func TestTokenCache_RecoversAfterFailure(t *testing.T) {
	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		if calls.Add(1) == 1 {
			return AuthResult{}, errors.New("erp: boom")
		}
		return AuthResult{Token: "tok-2", ExpiresIn: durationPtr(time.Hour)}, nil
	}

	cache := NewTokenCache(auth, nil)

	_, err := cache.Acquire(context.Background())
	require.Error(t, err)

	// Failure leaves nothing cached, the next call retries
	cred, err := cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", cred.Token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCache_Invalidate(t *testing.T) {
	var calls atomic.Int32
	auth := func(ctx context.Context) (AuthResult, error) {
		calls.Add(1)
		return AuthResult{Token: "tok", ExpiresIn: durationPtr(time.Hour)}, nil
	}

	cache := NewTokenCache(auth, nil)

	_, err := cache.Acquire(context.Background())
	require.NoError(t, err)

	cache.Invalidate()

	_, err = cache.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
