//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package searcher retrieves memories at one or more retrieval depths and
// generates candidate answers from them with an LLM call.
package searcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-memeval-go/internal/tokencount"
	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
)

// Mode selects the prompt variant. It is fixed per searcher instance so a
// run can never mix graph and non-graph prompts.
type Mode int

const (
	// ModePlain prompts with retrieved memory snippets only.
	ModePlain Mode = iota
	// ModeGraph additionally retrieves and prompts with relation triples.
	ModeGraph
)

const systemMessage = "You are a helpful assistant that can answer questions based on conversation memories."

// RetrievedMemory is one snippet produced by a search call.
type RetrievedMemory struct {
	Memory    string  `json:"memory"`
	Timestamp string  `json:"timestamp"`
	Score     float64 `json:"score"`
}

// TokenCounts records token volumes for one generation call. When the
// provider reports usage its numbers are authoritative; otherwise the
// counts are estimated locally and flagged as such.
type TokenCounts struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	Estimated        bool  `json:"estimated"`
}

// DepthResult is the outcome of one retrieval depth.
type DepthResult struct {
	TopK           int               `json:"top_k"`
	SearchTimeMS   float64           `json:"search_time_ms"`
	ResponseTimeMS float64           `json:"response_time_ms"`
	TotalTimeMS    float64           `json:"total_time_ms"`
	RetrievedCount int               `json:"retrieved_memories_count"`
	Answer         string            `json:"answer"`
	Memories       []RetrievedMemory `json:"retrieved_memories"`
	Tokens         TokenCounts       `json:"token_counts"`
	Error          string            `json:"error,omitempty"`
}

// Searcher issues parameterized search queries against the memory service
// and turns retrieved memories into short answers.
type Searcher struct {
	mem            *memoryapi.Client
	llm            openai.Client
	model          string
	mode           Mode
	filterMemories bool
	maxTokens      int64
}

// New creates a Searcher for the memory service at memBaseURL.
func New(memBaseURL string, opt ...Option) (*Searcher, error) {
	if memBaseURL == "" {
		return nil, errors.New("base URL is empty")
	}
	opts := newOptions(opt...)
	mem, err := memoryapi.NewClient(memBaseURL, opts.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create memory client: %w", err)
	}
	return &Searcher{
		mem:            mem,
		llm:            openai.NewClient(opts.llmOpts...),
		model:          opts.model,
		mode:           opts.mode,
		filterMemories: opts.filterMemories,
		maxTokens:      opts.maxTokens,
	}, nil
}

// SearchAndRespond runs one search-and-generate round per retrieval depth.
// Depths are independent: each issues a fresh search, and a failure at one
// depth yields an error-flagged result without stopping the others.
func (s *Searcher) SearchAndRespond(ctx context.Context, userID, query string, depths []int) []DepthResult {
	results := make([]DepthResult, 0, len(depths))
	for _, topK := range depths {
		result, err := s.searchAndRespondOnce(ctx, userID, query, topK)
		if err != nil {
			results = append(results, DepthResult{
				TopK:     topK,
				Answer:   "",
				Memories: []RetrievedMemory{},
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, *result)
	}
	return results
}

func (s *Searcher) searchAndRespondOnce(ctx context.Context, userID, query string, topK int) (*DepthResult, error) {
	memories, _, searchTime, err := s.search(ctx, userID, query, topK)
	if err != nil {
		return nil, err
	}
	prompt, err := renderAnswerPrompt(query, memories)
	if err != nil {
		return nil, err
	}
	answer, responseTime, tokens, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &DepthResult{
		TopK:           topK,
		SearchTimeMS:   durationMS(searchTime),
		ResponseTimeMS: durationMS(responseTime),
		TotalTimeMS:    durationMS(searchTime + responseTime),
		RetrievedCount: len(memories),
		Answer:         answer,
		Memories:       memories,
		Tokens:         tokens,
	}, nil
}

// search issues one search call and normalizes the response. Relations are
// only requested in graph mode.
func (s *Searcher) search(ctx context.Context, userID, query string, topK int) (
	[]RetrievedMemory, []memoryapi.Relation, time.Duration, error) {
	req := &memoryapi.SearchRequest{
		Query:          query,
		UserID:         userID,
		TopK:           topK,
		FilterMemories: s.filterMemories,
	}
	if s.mode == ModeGraph {
		req.EnableGraph = true
		req.OutputFormat = "v1.1"
	}
	start := time.Now()
	resp, err := s.mem.SearchMemories(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, nil, elapsed, err
	}
	memories := make([]RetrievedMemory, 0, len(resp.Results))
	for _, r := range resp.Results {
		memories = append(memories, RetrievedMemory{
			Memory:    r.Memory,
			Timestamp: r.Timestamp(),
			Score:     r.Score,
		})
	}
	var relations []memoryapi.Relation
	if s.mode == ModeGraph {
		relations = resp.Relations
	}
	return memories, relations, elapsed, nil
}

// generate runs one chat-completion call over the rendered prompt.
func (s *Searcher) generate(ctx context.Context, prompt string) (string, time.Duration, TokenCounts, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemMessage),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(s.maxTokens),
	}
	start := time.Now()
	resp, err := s.llm.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		return "", elapsed, TokenCounts{}, fmt.Errorf("generate answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", elapsed, TokenCounts{}, errors.New("generate answer: empty choices")
	}
	answer := resp.Choices[0].Message.Content
	return answer, elapsed, buildTokenCounts(resp, prompt, answer), nil
}

// buildTokenCounts applies the usage fallback policy: provider-reported
// usage wins outright, local character-based estimates fill in otherwise
// and are labeled as estimates.
func buildTokenCounts(resp *openai.ChatCompletion, prompt, answer string) TokenCounts {
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		return TokenCounts{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	promptTokens := int64(tokencount.EstimateAll(systemMessage, prompt))
	completionTokens := int64(tokencount.Estimate(answer))
	return TokenCounts{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Estimated:        true,
	}
}

func durationMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func memoriesJSON(memories []RetrievedMemory) string {
	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Timestamp, m.Memory))
	}
	data, err := json.MarshalIndent(lines, "", "    ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func relationsJSON(relations []memoryapi.Relation) string {
	if len(relations) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(relations, "", "    ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
