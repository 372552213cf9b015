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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAnswerPrompt(t *testing.T) {
	memories := []RetrievedMemory{
		{Memory: "Alice adopted a cat named Mochi", Timestamp: "1:00 pm on 1 May, 2023", Score: 0.9},
	}
	prompt, err := renderAnswerPrompt("What is the cat's name?", memories)
	require.NoError(t, err)
	assert.Contains(t, prompt, "What is the cat's name?")
	assert.Contains(t, prompt, "1:00 pm on 1 May, 2023: Alice adopted a cat named Mochi")
}

func TestRenderTwoSpeakerPrompt(t *testing.T) {
	data := &twoSpeakerPromptData{
		Speaker1Name:     "Alice",
		Speaker2Name:     "Bob",
		Speaker1Memories: `["m1"]`,
		Speaker2Memories: `["m2"]`,
		Speaker1Graph:    `[]`,
		Speaker2Graph:    `[]`,
		Question:         "cat name?",
	}

	plain, err := renderTwoSpeakerPrompt(ModePlain, data)
	require.NoError(t, err)
	assert.Contains(t, plain, "Memories for user Alice")
	assert.Contains(t, plain, "Memories for user Bob")
	assert.NotContains(t, plain, "Relations for user")

	graph, err := renderTwoSpeakerPrompt(ModeGraph, data)
	require.NoError(t, err)
	assert.Contains(t, graph, "Relations for user Alice")
	assert.Contains(t, graph, "Relations for user Bob")
}

func TestMemoriesJSONEmpty(t *testing.T) {
	assert.Equal(t, "[]", memoriesJSON(nil))
	assert.Equal(t, "[]", relationsJSON(nil))
}
