//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package scoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		want    float64
		wantErr bool
	}{
		{name: "bare number", reply: "0.85", want: 0.85},
		{name: "whole number", reply: "1", want: 1.0},
		{name: "zero", reply: "0.0", want: 0.0},
		{name: "surrounded by text", reply: "Score: 0.5", want: 0.5},
		{name: "whitespace", reply: "  0.75\n", want: 0.75},
		{name: "no number", reply: "CORRECT", wantErr: true},
		{name: "empty", reply: "", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := parseScore(c.reply)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrJudgeUnparsable)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
}

// fakeJudgeServer serves OpenAI-compatible chat completions whose message
// content is fixed. It counts the calls it receives.
func fakeJudgeServer(t *testing.T, content string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "judge-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestJudge(t *testing.T, content string, calls *atomic.Int64) *Judge {
	srv := fakeJudgeServer(t, content, calls)
	return NewJudge("judge-model",
		openaiopt.WithBaseURL(srv.URL),
		openaiopt.WithAPIKey("test-key"),
		openaiopt.WithMaxRetries(0),
	)
}

func TestJudge(t *testing.T) {
	judge := newTestJudge(t, "0.9", nil)
	score, err := judge.Judge(context.Background(), "q", "gold", "predicted")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestJudgeUnparsableReply(t *testing.T) {
	judge := newTestJudge(t, "I cannot decide", nil)
	_, err := judge.Judge(context.Background(), "q", "gold", "predicted")
	assert.True(t, errors.Is(err, ErrJudgeUnparsable))
}

func TestScorerWithoutJudge(t *testing.T) {
	scorer := NewScorer(nil)
	record := scorer.Score(context.Background(), "What is the cat's name?", "Mochi", "The cat is named Mochi", "4")
	assert.Equal(t, "single-hop", record.CategoryName)
	assert.Greater(t, record.F1Score, 0.0)
	assert.Greater(t, record.BleuScore, 0.0)
	assert.Nil(t, record.LLMScore)
	assert.Empty(t, record.JudgeError)
}

func TestScorerJudgeRunsOncePerRecord(t *testing.T) {
	var calls atomic.Int64
	scorer := NewScorer(newTestJudge(t, "1.0", &calls))
	record := scorer.Score(context.Background(), "q", "Mochi", "Mochi", "1")
	require.NotNil(t, record.LLMScore)
	assert.InDelta(t, 1.0, *record.LLMScore, 1e-9)
	assert.Equal(t, int64(1), calls.Load())
}

func TestScorerSkipsJudgeForAdversarial(t *testing.T) {
	var calls atomic.Int64
	scorer := NewScorer(newTestJudge(t, "1.0", &calls))
	record := scorer.Score(context.Background(), "q", "Not mentioned", "I don't know", "5")
	// Lexical metrics are still computed for auditability.
	assert.Equal(t, "adversarial", record.CategoryName)
	assert.Nil(t, record.LLMScore)
	assert.Equal(t, int64(0), calls.Load())
}

func TestScorerRecordsJudgeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	judge := NewJudge("judge-model",
		openaiopt.WithBaseURL(srv.URL),
		openaiopt.WithAPIKey("test-key"),
		openaiopt.WithMaxRetries(0),
	)
	scorer := NewScorer(judge)
	record := scorer.Score(context.Background(), "q", "Mochi", "Mochi", "1")
	assert.Nil(t, record.LLMScore)
	assert.NotEmpty(t, record.JudgeError)
	// Lexical metrics survive a judge failure.
	assert.InDelta(t, 1.0, record.F1Score, 1e-9)
}
