//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package retry implements a bounded retry policy shared by all network-calling components.
package retry

import (
	"context"
	"time"
)

const defaultMaxAttempts = 3

// Policy retries an operation a fixed number of times with a configurable
// delay between attempts. The zero value is not usable; construct with
// NewPolicy.
type Policy struct {
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts overrides the default attempt count.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff overrides the default backoff function. attempt is zero-based.
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(p *Policy) {
		if f != nil {
			p.backoff = f
		}
	}
}

// WithFixedDelay sets a constant delay between attempts.
func WithFixedDelay(d time.Duration) Option {
	return WithBackoff(func(int) time.Duration { return d })
}

// NewPolicy creates a retry policy. The default is 3 attempts with a
// linearly growing delay of 2s, 4s, ... between them.
func NewPolicy(opt ...Option) Policy {
	p := Policy{
		maxAttempts: defaultMaxAttempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 2 * time.Second
		},
	}
	for _, o := range opt {
		o(&p)
	}
	return p
}

// MaxAttempts returns the configured attempt count.
func (p Policy) MaxAttempts() int { return p.maxAttempts }

// Do runs op until it succeeds or the attempt budget is exhausted.
// It returns the last error when all attempts fail. A canceled context
// stops further attempts and returns the context error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return lastErr
}
