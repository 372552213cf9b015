//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 0, Estimate("abc"))
	assert.Equal(t, 1, Estimate("abcd"))
	assert.Equal(t, 25, Estimate(string(make([]byte, 100))))
}

func TestEstimateAll(t *testing.T) {
	// Totals are computed over the combined length, not per-text floors.
	assert.Equal(t, 1, EstimateAll("ab", "cd"))
	assert.Equal(t, 0, EstimateAll())
}
