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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"cat", "sat", "on", "mat"},
		Normalize("The cat sat on a mat."))
	assert.Equal(t, []string{"hello", "world"},
		Normalize("  Hello,   WORLD!  "))
	assert.Empty(t, Normalize("a an the"))
	assert.Empty(t, Normalize(""))
}

func TestF1Score(t *testing.T) {
	cases := []struct {
		name      string
		predicted string
		truth     string
		want      float64
	}{
		{"identical", "Mochi the cat", "Mochi the cat", 1.0},
		{"identical after normalization", "The answer is Paris.", "answer is paris", 1.0},
		{"disjoint", "blue", "seventeen", 0.0},
		{"both empty", "", "", 1.0},
		{"empty prediction", "", "Paris", 0.0},
		{"empty truth", "Paris", "", 0.0},
		// predicted {paris, france}, truth {paris}: p=0.5, r=1.0, f1=2/3.
		{"partial overlap", "Paris France", "Paris", 2.0 / 3.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, F1Score(c.predicted, c.truth), 1e-9)
		})
	}
}

func TestF1ScoreMultisetClipping(t *testing.T) {
	// "very very" overlaps the single "very" in the truth only once.
	got := F1Score("very very good", "very good")
	// common=2, p=2/3, r=1, f1=0.8
	assert.InDelta(t, 0.8, got, 1e-9)
}

func TestBleuScore(t *testing.T) {
	assert.InDelta(t, 1.0, BleuScore("Mochi the cat", "mochi cat"), 1e-9)
	assert.Equal(t, 0.0, BleuScore("", "Paris"))
	assert.Equal(t, 0.0, BleuScore("blue", "seventeen"))
	// Longer candidate than reference: no brevity penalty, precision only.
	assert.InDelta(t, 0.5, BleuScore("Paris France", "Paris"), 1e-9)
}

func TestBleuScoreBrevityPenalty(t *testing.T) {
	// Candidate "paris" (1 token) vs reference "paris france" (2 tokens):
	// precision 1.0, penalty exp(1-2/1)=exp(-1).
	got := BleuScore("Paris", "Paris France")
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
	assert.InDelta(t, 0.36787944117, got, 1e-9)
}

func TestMetricsDeterministic(t *testing.T) {
	predicted := "Alice adopted a cat named Mochi in May"
	truth := "Mochi"
	f1 := F1Score(predicted, truth)
	bleu := BleuScore(predicted, truth)
	for i := 0; i < 100; i++ {
		assert.Equal(t, f1, F1Score(predicted, truth))
		assert.Equal(t, bleu, BleuScore(predicted, truth))
	}
}
