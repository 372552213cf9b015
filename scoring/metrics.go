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
	"math"
	"strings"
	"unicode"
)

// Normalize lowercases text, strips punctuation and articles and collapses
// whitespace. Both lexical metrics operate on normalized token lists.
func Normalize(text string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsPunct(r) {
			continue
		}
		sb.WriteRune(r)
	}
	fields := strings.Fields(sb.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "a" || f == "an" || f == "the" {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// F1Score computes the token-level F1 between a predicted answer and the
// ground truth. Deterministic and pure.
func F1Score(predicted, groundTruth string) float64 {
	predTokens := Normalize(predicted)
	truthTokens := Normalize(groundTruth)
	if len(predTokens) == 0 || len(truthTokens) == 0 {
		if len(predTokens) == 0 && len(truthTokens) == 0 {
			return 1.0
		}
		return 0.0
	}
	common := overlapCount(predTokens, truthTokens)
	if common == 0 {
		return 0.0
	}
	precision := float64(common) / float64(len(predTokens))
	recall := float64(common) / float64(len(truthTokens))
	return 2 * precision * recall / (precision + recall)
}

// BleuScore computes BLEU-1: clipped unigram precision with a brevity
// penalty. Deterministic and pure.
func BleuScore(predicted, groundTruth string) float64 {
	predTokens := Normalize(predicted)
	truthTokens := Normalize(groundTruth)
	if len(predTokens) == 0 {
		return 0.0
	}
	common := overlapCount(predTokens, truthTokens)
	precision := float64(common) / float64(len(predTokens))
	if precision == 0 {
		return 0.0
	}
	// Brevity penalty for candidates shorter than the reference.
	bp := 1.0
	if len(predTokens) < len(truthTokens) {
		bp = math.Exp(1 - float64(len(truthTokens))/float64(len(predTokens)))
	}
	return bp * precision
}

// overlapCount counts the multiset intersection of two token lists.
func overlapCount(a, b []string) int {
	counts := make(map[string]int, len(b))
	for _, t := range b {
		counts[t]++
	}
	common := 0
	for _, t := range a {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}
	return common
}
