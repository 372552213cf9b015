//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package adder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-memeval-go/dataset"
	"trpc.group/trpc-go/trpc-memeval-go/internal/retry"
	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
)

func testMessages(n int) []dataset.Message {
	messages := make([]dataset.Message, n)
	for i := range messages {
		messages[i] = dataset.Message{
			Role:    dataset.RoleUser,
			Content: fmt.Sprintf("Alice: message %d", i),
			TurnID:  fmt.Sprintf("c1_session0_turn%d", i),
		}
	}
	return messages
}

func TestSplitBatches(t *testing.T) {
	messages := testMessages(8)

	batches := SplitBatches(messages, 2)
	require.Len(t, batches, 4)
	for _, b := range batches {
		assert.Len(t, b, 2)
	}

	// Concatenating the batches in order reconstructs the input.
	var rebuilt []dataset.Message
	for _, b := range batches {
		rebuilt = append(rebuilt, b...)
	}
	assert.Equal(t, messages, rebuilt)
}

func TestSplitBatchesUnevenTail(t *testing.T) {
	batches := SplitBatches(testMessages(7), 3)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)
}

func TestSplitBatchesEmpty(t *testing.T) {
	assert.Empty(t, SplitBatches(nil, 2))
}

func fastClientOptions() Option {
	return WithClientOptions(memoryapi.WithRetryPolicy(
		retry.NewPolicy(retry.WithMaxAttempts(1), retry.WithFixedDelay(0)),
	))
}

func TestAddConversation(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []memoryapi.AddRequest
	)
	r := mux.NewRouter()
	r.HandleFunc(memoryapi.EndpointMemories, func(w http.ResponseWriter, req *http.Request) {
		var ar memoryapi.AddRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&ar))
		mu.Lock()
		requests = append(requests, ar)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	a, err := New(srv.URL,
		WithBatchSize(2),
		WithInstructions(DefaultInstructions),
		fastClientOptions(),
	)
	require.NoError(t, err)

	metadata := &dataset.Metadata{ConversationID: "c1", MessageCount: 8}
	metrics, err := a.AddConversation(context.Background(), "Alice_c1", testMessages(8), metadata)
	require.NoError(t, err)

	assert.Equal(t, "c1", metrics.ConversationID)
	assert.Equal(t, 8, metrics.MessageCount)
	assert.Equal(t, 4, metrics.TotalBatches)
	assert.Equal(t, 4, metrics.SuccessfulBatches)
	assert.Equal(t, 0, metrics.FailedBatches)
	assert.Greater(t, metrics.TotalTokens, 0)

	require.Len(t, requests, 4)
	for _, ar := range requests {
		assert.Equal(t, "Alice_c1", ar.UserID)
		assert.Len(t, ar.Messages, 2)
		assert.Equal(t, "c1", ar.Metadata["conversation_id"])
		assert.Equal(t, float64(4), ar.Metadata["total_batches"])
		assert.Contains(t, ar.Metadata, "custom_instructions")
		for _, m := range ar.Messages {
			assert.Contains(t, m.Metadata, "turn_id")
		}
	}
}

func TestAddConversationIsolatesFailedBatches(t *testing.T) {
	// Every second batch write fails; the rest must still land.
	var calls sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var ar memoryapi.AddRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&ar))
		idx := int(ar.Metadata["batch_index"].(float64))
		calls.Store(idx, true)
		if idx%2 == 1 {
			http.Error(w, "broken", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a, err := New(srv.URL, WithBatchSize(2), fastClientOptions())
	require.NoError(t, err)

	metrics, err := a.AddConversation(context.Background(), "u", testMessages(8), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.TotalBatches)
	assert.Equal(t, 2, metrics.SuccessfulBatches)
	assert.Equal(t, 2, metrics.FailedBatches)
	assert.Equal(t, metrics.TotalBatches, metrics.SuccessfulBatches+metrics.FailedBatches)
}

func TestAddConversationRequiresUserID(t *testing.T) {
	a, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = a.AddConversation(context.Background(), "", testMessages(2), nil)
	assert.ErrorIs(t, err, memoryapi.ErrUserIDRequired)
}

func TestAddConversationEmptyMessages(t *testing.T) {
	a, err := New("http://127.0.0.1:1", fastClientOptions())
	require.NoError(t, err)
	metrics, err := a.AddConversation(context.Background(), "u", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.TotalBatches)
	assert.Equal(t, 0, metrics.TotalTokens)
}
