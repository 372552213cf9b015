//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package searcher

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
)

// Speaker identifies one side of a two-person dialogue in the memory store.
type Speaker struct {
	UserID string
	Name   string
}

// TwoSpeakerResult is the outcome of answering one question from both
// speakers' memories.
type TwoSpeakerResult struct {
	Answer               string               `json:"answer"`
	Speaker1Memories     []RetrievedMemory    `json:"speaker_1_memories"`
	Speaker2Memories     []RetrievedMemory    `json:"speaker_2_memories"`
	Speaker1Graph        []memoryapi.Relation `json:"speaker_1_graph_memories,omitempty"`
	Speaker2Graph        []memoryapi.Relation `json:"speaker_2_graph_memories,omitempty"`
	Speaker1SearchTimeMS float64              `json:"speaker_1_memory_time_ms"`
	Speaker2SearchTimeMS float64              `json:"speaker_2_memory_time_ms"`
	ResponseTimeMS       float64              `json:"response_time_ms"`
	Tokens               TokenCounts          `json:"token_counts"`
}

// AnswerQuestion retrieves memories independently for both speaker
// identities, renders a single combined prompt and issues one generation
// call. The prompt variant (plain or graph) was fixed when the searcher
// was constructed.
func (s *Searcher) AnswerQuestion(ctx context.Context, speaker1, speaker2 Speaker,
	question string, topK int) (*TwoSpeakerResult, error) {
	mem1, graph1, time1, err := s.search(ctx, speaker1.UserID, question, topK)
	if err != nil {
		return nil, fmt.Errorf("search memories for %s: %w", speaker1.UserID, err)
	}
	mem2, graph2, time2, err := s.search(ctx, speaker2.UserID, question, topK)
	if err != nil {
		return nil, fmt.Errorf("search memories for %s: %w", speaker2.UserID, err)
	}

	prompt, err := renderTwoSpeakerPrompt(s.mode, &twoSpeakerPromptData{
		Speaker1Name:     speaker1.Name,
		Speaker2Name:     speaker2.Name,
		Speaker1Memories: memoriesJSON(mem1),
		Speaker2Memories: memoriesJSON(mem2),
		Speaker1Graph:    relationsJSON(graph1),
		Speaker2Graph:    relationsJSON(graph2),
		Question:         question,
	})
	if err != nil {
		return nil, err
	}

	answer, responseTime, tokens, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &TwoSpeakerResult{
		Answer:               answer,
		Speaker1Memories:     mem1,
		Speaker2Memories:     mem2,
		Speaker1Graph:        graph1,
		Speaker2Graph:        graph2,
		Speaker1SearchTimeMS: durationMS(time1),
		Speaker2SearchTimeMS: durationMS(time2),
		ResponseTimeMS:       durationMS(responseTime),
		Tokens:               tokens,
	}, nil
}
