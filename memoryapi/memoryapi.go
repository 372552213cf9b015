//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package memoryapi is a rate-limited client for the external memory
// service. Every call is admission-gated by a counting semaphore, carries a
// per-request timeout and retries a bounded number of times before failing.
package memoryapi

import (
	"errors"
	"fmt"
)

// Endpoints exposed by the memory service.
const (
	EndpointMemories = "/memories"
	EndpointSearch   = "/search"
)

// ErrUserIDRequired is returned when a request is missing the user identity.
var ErrUserIDRequired = errors.New("userID is required")

// RequestFailure reports a request that failed after exhausting its retry
// budget. Callers decide whether to skip the item or abort.
type RequestFailure struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *RequestFailure) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *RequestFailure) Unwrap() error { return e.Err }

// Message is one role-tagged message in a write request.
type Message struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AddRequest is the payload for POST /memories.
type AddRequest struct {
	Messages []Message      `json:"messages"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id"`
	TopK           int    `json:"top_k"`
	FilterMemories bool   `json:"filter_memories"`
	EnableGraph    bool   `json:"enable_graph,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
}

// SearchResult is one retrieved memory snippet.
type SearchResult struct {
	Memory   string         `json:"memory"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
}

// Timestamp returns the snippet's timestamp metadata, or empty when absent.
func (r *SearchResult) Timestamp() string {
	if r.Metadata == nil {
		return ""
	}
	if ts, ok := r.Metadata["timestamp"].(string); ok {
		return ts
	}
	return ""
}

// Relation is one graph edge returned when graph mode is enabled.
type Relation struct {
	Source       string `json:"source"`
	Relationship string `json:"relationship"`
	Target       string `json:"target"`
}

// SearchResponse is the response of POST /search.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Relations []Relation     `json:"relations,omitempty"`
}
