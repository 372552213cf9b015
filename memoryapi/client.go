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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"trpc.group/trpc-go/trpc-memeval-go/internal/retry"
	itelemetry "trpc.group/trpc-go/trpc-memeval-go/internal/telemetry"
)

// Client talks to the memory service. One client holds one admission gate,
// so a fresh client should be created per add/search phase rather than
// shared across phases.
type Client struct {
	baseURL    string
	httpClient *http.Client
	gate       *semaphore.Weighted
	timeout    time.Duration
	policy     retry.Policy
}

// NewClient creates a memory service client for the given base URL.
func NewClient(baseURL string, opt ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is empty")
	}
	opts := NewOptions(opt...)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: opts.HTTPClient,
		gate:       semaphore.NewWeighted(opts.MaxInFlight),
		timeout:    opts.Timeout,
		policy:     opts.Retry,
	}, nil
}

// AddMemories writes a batch of messages for a user.
func (c *Client) AddMemories(ctx context.Context, req *AddRequest) error {
	if req == nil {
		return errors.New("add request is nil")
	}
	if req.UserID == "" {
		return ErrUserIDRequired
	}
	return c.submit(ctx, EndpointMemories, req, nil)
}

// SearchMemories retrieves the most relevant memories for a query.
func (c *Client) SearchMemories(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil {
		return nil, errors.New("search request is nil")
	}
	if req.UserID == "" {
		return nil, ErrUserIDRequired
	}
	var resp SearchResponse
	if err := c.submit(ctx, EndpointSearch, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// submit posts a JSON payload to an endpoint under the admission gate,
// retrying per the client policy. out, when non-nil, receives the decoded
// response body. Exhausted retries surface as a RequestFailure.
func (c *Client) submit(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", endpoint, err)
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire admission gate: %w", err)
	}
	defer c.gate.Release(1)

	start := time.Now()
	attempt := 0
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		if attempt > 0 {
			itelemetry.IncRetryCnt(ctx, endpoint)
		}
		attempt++
		return c.post(ctx, endpoint, body, out)
	})
	itelemetry.RecordRequestDuration(ctx, endpoint, time.Since(start).Seconds())
	if err != nil {
		itelemetry.IncRequestCnt(ctx, endpoint, itelemetry.OutcomeFailed)
		return &RequestFailure{Endpoint: endpoint, Err: err}
	}
	itelemetry.IncRequestCnt(ctx, endpoint, itelemetry.OutcomeOK)
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post %s: unexpected status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
