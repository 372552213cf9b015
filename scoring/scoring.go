//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package scoring computes lexical and LLM-judged similarity metrics for
// predicted answers.
package scoring

import (
	"context"

	"trpc.group/trpc-go/trpc-memeval-go/dataset"
)

// Record is one scored question. Records map 1:1 to a
// (conversation, question) pair and are owned by the result aggregator
// once appended.
type Record struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Response     string   `json:"response"`
	Category     string   `json:"category"`
	CategoryName string   `json:"category_name"`
	BleuScore    float64  `json:"bleu_score"`
	F1Score      float64  `json:"f1_score"`
	LLMScore     *float64 `json:"llm_score"`
	JudgeError   string   `json:"judge_error,omitempty"`
	// Error carries a search or generation failure for this question.
	// Such records stay in the raw output but score zero.
	Error string `json:"error,omitempty"`
}

// Scorer scores predicted answers. The judge is optional; without one only
// the lexical metrics are produced.
type Scorer struct {
	judge *Judge
}

// NewScorer creates a Scorer.
func NewScorer(judge *Judge) *Scorer {
	return &Scorer{judge: judge}
}

// Score computes all metrics for one answer and returns the record.
// Lexical metrics are always computed. The judge runs at most once per
// record and is skipped outright for adversarial (category "5") questions,
// which are excluded from scoring aggregates anyway. A judge failure is
// recorded on the record, never escalated.
func (s *Scorer) Score(ctx context.Context, question, groundTruth, predicted, category string) *Record {
	record := &Record{
		Question:     question,
		Answer:       groundTruth,
		Response:     predicted,
		Category:     category,
		CategoryName: dataset.CategoryName(category),
		BleuScore:    BleuScore(predicted, groundTruth),
		F1Score:      F1Score(predicted, groundTruth),
	}
	if s.judge == nil || category == dataset.CategoryAdversarial {
		return record
	}
	score, err := s.judge.Judge(ctx, question, groundTruth, predicted)
	if err != nil {
		record.JudgeError = err.Error()
		return record
	}
	record.LLMScore = &score
	return record
}
