//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package memoryapi

import (
	"net/http"
	"time"

	"trpc.group/trpc-go/trpc-memeval-go/internal/retry"
)

const (
	defaultMaxInFlight = 3
	// The backend runs fact extraction on every write, so the default
	// request timeout must be generous.
	defaultTimeout = 300 * time.Second
)

// Options holds client configuration.
type Options struct {
	MaxInFlight int64
	Timeout     time.Duration
	Retry       retry.Policy
	HTTPClient  *http.Client
}

// NewOptions applies the given options over the defaults.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		MaxInFlight: defaultMaxInFlight,
		Timeout:     defaultTimeout,
		Retry:       retry.NewPolicy(),
		HTTPClient:  &http.Client{},
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures the client.
type Option func(*Options)

// WithMaxInFlight bounds the number of in-flight requests admitted by this
// client at any instant.
func WithMaxInFlight(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxInFlight = int64(n)
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Options) {
		o.Retry = p
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) {
		if c != nil {
			o.HTTPClient = c
		}
	}
}
