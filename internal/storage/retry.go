package storage

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines backoff behavior for storage operations.
type RetryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitterFactor float64
}

// DefaultRetryPolicy returns the policy used for the production store.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		maxAttempts:  3,
		initialDelay: 200 * time.Millisecond,
		maxDelay:     5 * time.Second,
		multiplier:   2.0,
		jitterFactor: 0.1,
	}
}

// NoRetryPolicy returns a policy that never retries.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{maxAttempts: 1}
}

// WithMaxAttempts sets the maximum number of attempts.
func (p *RetryPolicy) WithMaxAttempts(n int) *RetryPolicy {
	p.maxAttempts = n
	return p
}

// WithInitialDelay sets the delay before the first retry.
func (p *RetryPolicy) WithInitialDelay(d time.Duration) *RetryPolicy {
	p.initialDelay = d
	return p
}

// ShouldRetry determines whether err warrants another attempt. Definite
// answers from the store (missing key, overwrite) and cancelled contexts
// never retry.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrKeyExists) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// DelayForAttempt calculates the backoff before attempt (1-based).
func (p *RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt-1))
	if p.jitterFactor > 0 {
		delay += delay * p.jitterFactor * (rand.Float64()*2 - 1)
	}
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	return time.Duration(delay)
}

// wait sleeps for the attempt's backoff, returning false if the context
// is cancelled first.
func (p *RetryPolicy) wait(ctx context.Context, attempt int) bool {
	delay := p.DelayForAttempt(attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryingStore decorates an ObjectStore with the retry policy.
type RetryingStore struct {
	inner  ObjectStore
	policy *RetryPolicy
}

// NewRetryingStore wraps inner with policy.
func NewRetryingStore(inner ObjectStore, policy *RetryPolicy) *RetryingStore {
	return &RetryingStore{inner: inner, policy: policy}
}

// Put stores body under key, retrying transient failures.
func (s *RetryingStore) Put(ctx context.Context, key string, body []byte) error {
	return s.execute(ctx, func() error { return s.inner.Put(ctx, key, body) })
}

// List lists objects, retrying transient failures.
func (s *RetryingStore) List(ctx context.Context, maxKeys int) (objects []ObjectInfo, err error) {
	err = s.execute(ctx, func() error {
		objects, err = s.inner.List(ctx, maxKeys)
		return err
	})
	return objects, err
}

// Get fetches key, retrying transient failures.
func (s *RetryingStore) Get(ctx context.Context, key string) (body []byte, err error) {
	err = s.execute(ctx, func() error {
		body, err = s.inner.Get(ctx, key)
		return err
	})
	return body, err
}

func (s *RetryingStore) execute(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = op()
		if !s.policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}
		if !s.policy.wait(ctx, attempt) {
			return lastErr
		}
	}
}
