//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package adder submits conversation messages to the memory service in
// fixed-size batches under a bounded concurrency budget.
package adder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-memeval-go/dataset"
	"trpc.group/trpc-go/trpc-memeval-go/internal/tokencount"
	"trpc.group/trpc-go/trpc-memeval-go/log"
	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
)

// Metrics aggregates the outcome of adding one conversation.
type Metrics struct {
	ConversationID         string  `json:"conversation_id"`
	UserID                 string  `json:"user_id"`
	TotalTimeMS            float64 `json:"total_time_ms"`
	TotalTokens            int     `json:"total_tokens"`
	MessageCount           int     `json:"messages_count"`
	TotalBatches           int     `json:"batches_count"`
	SuccessfulBatches      int     `json:"successful_batches"`
	FailedBatches          int     `json:"failed_batches"`
	AvgTimePerBatchMS      float64 `json:"average_time_per_batch_ms"`
	ThroughputTokensPerSec float64 `json:"throughput_tokens_per_second"`
}

// Adder writes conversations to the memory store. Conversations are
// processed sequentially; batches inside one conversation are submitted
// concurrently through a client whose admission gate is scoped to that
// single invocation.
type Adder struct {
	baseURL       string
	batchSize     int
	maxConcurrent int
	clientOpts    []memoryapi.Option
	instructions  string
}

// New creates an Adder targeting the memory service at baseURL.
func New(baseURL string, opt ...Option) (*Adder, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is empty")
	}
	opts := newOptions(opt...)
	return &Adder{
		baseURL:       baseURL,
		batchSize:     opts.batchSize,
		maxConcurrent: opts.maxConcurrent,
		clientOpts:    opts.clientOpts,
		instructions:  opts.instructions,
	}, nil
}

// SplitBatches splits messages into batches of at most size messages,
// preserving order. Concatenating the batches in order reconstructs the
// input exactly.
func SplitBatches(messages []dataset.Message, size int) [][]dataset.Message {
	if size <= 0 {
		size = 1
	}
	batches := make([][]dataset.Message, 0, (len(messages)+size-1)/size)
	for i := 0; i < len(messages); i += size {
		end := i + size
		if end > len(messages) {
			end = len(messages)
		}
		batches = append(batches, messages[i:end])
	}
	return batches
}

// AddConversation submits all messages of one conversation as concurrent
// batch writes for the given user identity. A batch that fails after
// retries is counted and logged, never fatal for its siblings.
func (a *Adder) AddConversation(ctx context.Context, userID string, messages []dataset.Message,
	metadata *dataset.Metadata) (*Metrics, error) {
	if userID == "" {
		return nil, memoryapi.ErrUserIDRequired
	}
	client, err := memoryapi.NewClient(a.baseURL,
		append([]memoryapi.Option{memoryapi.WithMaxInFlight(a.maxConcurrent)}, a.clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create memory client: %w", err)
	}

	batches := SplitBatches(messages, a.batchSize)
	metrics := &Metrics{
		UserID:       userID,
		MessageCount: len(messages),
		TotalBatches: len(batches),
	}
	if metadata != nil {
		metrics.ConversationID = metadata.ConversationID
	}

	var (
		mu                sync.Mutex
		wg                sync.WaitGroup
		successfulBatches int
		failedBatches     int
		totalTokens       int
	)
	start := time.Now()
	for batchIdx, batch := range batches {
		wg.Add(1)
		go func(batchIdx int, batch []dataset.Message) {
			defer wg.Done()
			tokens := a.estimateBatchTokens(batch)
			err := client.AddMemories(ctx, a.buildAddRequest(userID, batchIdx, len(batches), batch, metadata))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failedBatches++
				log.Warnf("add batch %d/%d for %s failed: %v", batchIdx+1, len(batches), userID, err)
				return
			}
			successfulBatches++
			totalTokens += tokens
		}(batchIdx, batch)
	}
	wg.Wait()

	elapsed := time.Since(start)
	metrics.TotalTimeMS = float64(elapsed.Milliseconds())
	metrics.SuccessfulBatches = successfulBatches
	metrics.FailedBatches = failedBatches
	metrics.TotalTokens = totalTokens
	if len(batches) > 0 {
		metrics.AvgTimePerBatchMS = metrics.TotalTimeMS / float64(len(batches))
	}
	if secs := elapsed.Seconds(); secs > 0 {
		metrics.ThroughputTokensPerSec = float64(totalTokens) / secs
	}
	return metrics, nil
}

func (a *Adder) buildAddRequest(userID string, batchIdx, totalBatches int, batch []dataset.Message,
	metadata *dataset.Metadata) *memoryapi.AddRequest {
	msgs := make([]memoryapi.Message, len(batch))
	for i, m := range batch {
		msgs[i] = memoryapi.Message{
			Role:    m.Role,
			Content: m.Content,
			Metadata: map[string]any{
				"timestamp":     m.Timestamp,
				"session_index": m.SessionIndex,
				"turn_id":       m.TurnID,
			},
		}
	}
	reqMetadata := map[string]any{
		"batch_index":   batchIdx,
		"total_batches": totalBatches,
	}
	if metadata != nil {
		reqMetadata["conversation_id"] = metadata.ConversationID
	}
	if a.instructions != "" {
		reqMetadata["custom_instructions"] = a.instructions
	}
	return &memoryapi.AddRequest{
		Messages: msgs,
		UserID:   userID,
		Metadata: reqMetadata,
	}
}

func (a *Adder) estimateBatchTokens(batch []dataset.Message) int {
	texts := make([]string, len(batch))
	for i, m := range batch {
		texts[i] = m.Content
	}
	return tokencount.EstimateAll(texts...)
}
