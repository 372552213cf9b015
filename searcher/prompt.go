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
	"fmt"
	"strings"
	"text/template"
)

// answerPrompt is the single-identity prompt used for the retrieval depth
// sweep. Memories arrive as timestamped lines.
const answerPrompt = `You are an intelligent memory assistant tasked with retrieving accurate information from conversation memories.

# CONTEXT:
You have access to conversation memories that contain timestamped information relevant to answering the question.

# INSTRUCTIONS:
1. Carefully analyze all provided memories
2. Pay special attention to timestamps to determine the answer
3. If the question asks about a specific event or fact, look for direct evidence in the memories
4. If the memories contain contradictory information, prioritize the most recent memory
5. If there is a question about time references (like "last year", "two months ago", etc.),
   calculate the actual date based on the memory timestamp
6. Always convert relative time references to specific dates, months, or years
7. Focus only on the content of the memories. Do not confuse character names mentioned in
   memories with the actual users who created those memories
8. The answer should be less than 5-6 words

Memories:

{{.Memories}}

Question: {{.Question}}

Answer:
`

// twoSpeakerPrompt answers questions about a two-person dialogue from both
// speakers' memories.
const twoSpeakerPrompt = `You are an intelligent memory assistant tasked with retrieving accurate information from conversation memories.

# CONTEXT:
You have access to memories from two speakers in a conversation. These memories contain
timestamped information that may be relevant to answering the question.

# INSTRUCTIONS:
1. Carefully analyze all provided memories from both speakers
2. Pay attention to the timestamps to determine the answer
3. If the memories contain contradictory information, prioritize the most recent memory
4. Always convert relative time references to specific dates, months, or years
5. The answer should be less than 5-6 words

Memories for user {{.Speaker1Name}}:

{{.Speaker1Memories}}

Memories for user {{.Speaker2Name}}:

{{.Speaker2Memories}}

Question: {{.Question}}

Answer:
`

// twoSpeakerGraphPrompt extends the two-speaker prompt with relation
// triples from the memory graph.
const twoSpeakerGraphPrompt = `You are an intelligent memory assistant tasked with retrieving accurate information from conversation memories.

# CONTEXT:
You have access to memories from two speakers in a conversation, plus graph relations
describing how entities in those memories connect. Memories contain timestamped
information that may be relevant to answering the question.

# INSTRUCTIONS:
1. Carefully analyze all provided memories and relations from both speakers
2. Use the relations to resolve multi-hop connections between entities
3. Pay attention to the timestamps to determine the answer
4. If the memories contain contradictory information, prioritize the most recent memory
5. Always convert relative time references to specific dates, months, or years
6. The answer should be less than 5-6 words

Memories for user {{.Speaker1Name}}:

{{.Speaker1Memories}}

Relations for user {{.Speaker1Name}}:

{{.Speaker1Graph}}

Memories for user {{.Speaker2Name}}:

{{.Speaker2Memories}}

Relations for user {{.Speaker2Name}}:

{{.Speaker2Graph}}

Question: {{.Question}}

Answer:
`

var (
	answerTmpl          = template.Must(template.New("answer").Parse(answerPrompt))
	twoSpeakerTmpl      = template.Must(template.New("two_speaker").Parse(twoSpeakerPrompt))
	twoSpeakerGraphTmpl = template.Must(template.New("two_speaker_graph").Parse(twoSpeakerGraphPrompt))
)

func renderAnswerPrompt(question string, memories []RetrievedMemory) (string, error) {
	var sb strings.Builder
	err := answerTmpl.Execute(&sb, struct {
		Memories string
		Question string
	}{
		Memories: memoriesJSON(memories),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	return sb.String(), nil
}

type twoSpeakerPromptData struct {
	Speaker1Name     string
	Speaker2Name     string
	Speaker1Memories string
	Speaker2Memories string
	Speaker1Graph    string
	Speaker2Graph    string
	Question         string
}

func renderTwoSpeakerPrompt(mode Mode, data *twoSpeakerPromptData) (string, error) {
	tmpl := twoSpeakerTmpl
	if mode == ModeGraph {
		tmpl = twoSpeakerGraphTmpl
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render two-speaker prompt: %w", err)
	}
	return sb.String(), nil
}
