package erp

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// refreshKey is the singleflight key; the cache holds exactly one credential
const refreshKey = "erp-token"

// Default cache tuning, applied when the corresponding option is zero
const (
	defaultSafetyMargin    = 30 * time.Second
	defaultMinValidity     = 10 * time.Second
	defaultDefaultValidity = 10 * time.Minute
)

// AuthFunc performs one credential exchange against the ERP
type AuthFunc func(ctx context.Context) (AuthResult, error)

// TokenCache caches the ERP bearer token and refreshes it lazily. Concurrent
// callers that find the token expired share a single refresh; exactly one
// authentication request reaches the ERP per refresh cycle, and an error
// from that request propagates to every waiter.
type TokenCache struct {
	authenticate AuthFunc
	logger       *zap.Logger

	// Expiry computation: the hinted validity minus margin, floored at
	// minValidity; defaultValidity when the ERP gives no hint
	margin          time.Duration
	minValidity     time.Duration
	defaultValidity time.Duration

	now func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	current syncdomain.Credential
}

// Compile-time interface check
var _ syncdomain.CredentialSource = (*TokenCache)(nil)

// TokenCacheOption configures a TokenCache
type TokenCacheOption func(*TokenCache)

// WithSafetyMargin sets the duration subtracted from the hinted expiry
func WithSafetyMargin(margin time.Duration) TokenCacheOption {
	return func(tc *TokenCache) {
		tc.margin = margin
	}
}

// WithMinValidity sets the validity floor applied after the margin
func WithMinValidity(min time.Duration) TokenCacheOption {
	return func(tc *TokenCache) {
		tc.minValidity = min
	}
}

// WithDefaultValidity sets the validity assumed when the ERP hints no expiry
func WithDefaultValidity(validity time.Duration) TokenCacheOption {
	return func(tc *TokenCache) {
		tc.defaultValidity = validity
	}
}

// WithClock overrides the cache's time source, used by tests
func WithClock(now func() time.Time) TokenCacheOption {
	return func(tc *TokenCache) {
		tc.now = now
	}
}

// NewTokenCache creates a token cache around the given authentication function
func NewTokenCache(authenticate AuthFunc, logger *zap.Logger, opts ...TokenCacheOption) *TokenCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	tc := &TokenCache{
		authenticate:    authenticate,
		logger:          logger.Named("erp-token"),
		margin:          defaultSafetyMargin,
		minValidity:     defaultMinValidity,
		defaultValidity: defaultDefaultValidity,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(tc)
	}

	return tc
}

// Acquire returns a valid credential, refreshing it first when the cached
// one is missing or expired
func (tc *TokenCache) Acquire(ctx context.Context) (syncdomain.Credential, error) {
	tc.mu.RLock()
	cred := tc.current
	tc.mu.RUnlock()

	if cred.Valid(tc.now()) {
		return cred, nil
	}

	v, err, _ := tc.group.Do(refreshKey, func() (any, error) {
		// A waiter that queued behind a refresh re-checks before paying
		// for another network round-trip
		tc.mu.RLock()
		cred := tc.current
		tc.mu.RUnlock()
		if cred.Valid(tc.now()) {
			return cred, nil
		}

		result, err := tc.authenticate(ctx)
		if err != nil {
			tc.logger.Warn("token refresh failed", zap.Error(err))
			return nil, err
		}

		cred = syncdomain.Credential{
			Token:     result.Token,
			ExpiresAt: tc.expiresAt(tc.now(), result.ExpiresIn),
		}

		tc.mu.Lock()
		tc.current = cred
		tc.mu.Unlock()

		tc.logger.Debug("token refreshed", zap.Time("expires_at", cred.ExpiresAt))
		return cred, nil
	})
	if err != nil {
		return syncdomain.Credential{}, err
	}
	return v.(syncdomain.Credential), nil
}

// Invalidate discards the cached credential so the next Acquire refreshes.
// Called when the ERP rejects a token before its computed expiry.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.current = syncdomain.Credential{}
	tc.mu.Unlock()
}

// expiresAt computes the credential expiry from the optional validity hint.
// A missing hint falls back to the default validity, which then goes through
// the same margin and floor arithmetic as a real hint.
func (tc *TokenCache) expiresAt(now time.Time, hint *time.Duration) time.Time {
	hinted := tc.defaultValidity
	if hint != nil {
		hinted = *hint
	}
	validity := hinted - tc.margin
	if validity < tc.minValidity {
		validity = tc.minValidity
	}
	return now.Add(validity)
}
