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
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-memeval-go/internal/retry"
)

// fastRetry keeps tests quick while preserving the attempt budget.
func fastRetry(attempts int) Option {
	return WithRetryPolicy(retry.NewPolicy(
		retry.WithMaxAttempts(attempts),
		retry.WithFixedDelay(0),
	))
}

func TestAddMemories(t *testing.T) {
	var got AddRequest
	r := mux.NewRouter()
	r.HandleFunc(EndpointMemories, func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, fastRetry(1))
	require.NoError(t, err)

	req := &AddRequest{
		UserID: "alice_c1",
		Messages: []Message{
			{Role: "user", Content: "Alice: hi"},
		},
		Metadata: map[string]any{"conversation_id": "c1"},
	}
	require.NoError(t, client.AddMemories(context.Background(), req))
	assert.Equal(t, "alice_c1", got.UserID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Alice: hi", got.Messages[0].Content)
}

func TestAddMemoriesRequiresUserID(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	err = client.AddMemories(context.Background(), &AddRequest{})
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

func TestSearchMemories(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc(EndpointSearch, func(w http.ResponseWriter, req *http.Request) {
		var sr SearchRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&sr))
		assert.Equal(t, 30, sr.TopK)
		json.NewEncoder(w).Encode(SearchResponse{
			Results: []SearchResult{
				{Memory: "Alice adopted a cat named Mochi", Score: 0.91,
					Metadata: map[string]any{"timestamp": "1:00 pm on 1 May, 2023"}},
			},
		})
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, fastRetry(1))
	require.NoError(t, err)

	resp, err := client.SearchMemories(context.Background(), &SearchRequest{
		Query:  "cat name",
		UserID: "alice_c1",
		TopK:   30,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "1:00 pm on 1 May, 2023", resp.Results[0].Timestamp())
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, fastRetry(3))
	require.NoError(t, err)
	require.NoError(t, client.AddMemories(context.Background(), &AddRequest{UserID: "u"}))
	assert.Equal(t, int64(3), calls.Load())
}

func TestSubmitWrapsExhaustedRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, fastRetry(3))
	require.NoError(t, err)
	err = client.AddMemories(context.Background(), &AddRequest{UserID: "u"})
	require.Error(t, err)
	var failure *RequestFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, EndpointMemories, failure.Endpoint)
	assert.Equal(t, int64(3), calls.Load())
}

func TestAdmissionGateBoundsConcurrency(t *testing.T) {
	const maxInFlight = 2
	var inFlight, peak atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, WithMaxInFlight(maxInFlight), fastRetry(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.AddMemories(context.Background(), &AddRequest{UserID: "u"}))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(maxInFlight))
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Drain the body so the server starts its background connection
		// read; otherwise the request context is never canceled when the
		// timed-out client hangs up and Close deadlocks in cleanup.
		_, _ = io.Copy(io.Discard, req.Body)
		<-req.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, WithTimeout(30*time.Millisecond), fastRetry(1))
	require.NoError(t, err)
	err = client.AddMemories(context.Background(), &AddRequest{UserID: "u"})
	require.Error(t, err)
	var failure *RequestFailure
	assert.True(t, errors.As(err, &failure))
}
