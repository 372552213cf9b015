//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package tokencount estimates token volumes from character length.
// Provider-side tokenization is unavailable to the harness, so estimates
// use the usual one-token-per-four-characters approximation. Whenever a
// provider reports real usage numbers those are authoritative instead.
package tokencount

// charsPerToken is the rough character-to-token ratio for English text.
const charsPerToken = 4

// Estimate returns the estimated token count of a text.
func Estimate(text string) int {
	return len(text) / charsPerToken
}

// EstimateAll returns the estimated token count over several texts.
func EstimateAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += len(t)
	}
	return total / charsPerToken
}
