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
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const judgePrompt = `Your task is to label an answer to a question as CORRECT or WRONG,
expressed as a score between 0.0 and 1.0.

You will be given the question, the gold (ground truth) answer, and the
generated answer. The gold answer may be a short phrase while the generated
answer is a full sentence; judge whether the generated answer contains the
information of the gold answer, not whether it matches word for word.
Time references must resolve to the same date or period to count as correct.

Question: %s
Gold answer: %s
Generated answer: %s

Reply with a single number between 0.0 and 1.0 and nothing else.
Score:`

var scorePattern = regexp.MustCompile(`[01](?:\.\d+)?`)

// ErrJudgeUnparsable is returned when the judge reply contains no score.
var ErrJudgeUnparsable = errors.New("judge reply contains no score")

// Judge scores predicted answers against ground truth with an external
// model call. It may be slow and non-deterministic; callers must invoke it
// at most once per record.
type Judge struct {
	client openai.Client
	model  string
}

// NewJudge creates a judge backed by a chat-completion model.
func NewJudge(model string, opt ...openaiopt.RequestOption) *Judge {
	return &Judge{
		client: openai.NewClient(opt...),
		model:  model,
	}
}

// Judge returns a correctness score in [0, 1] for the predicted answer.
func (j *Judge) Judge(ctx context.Context, question, groundTruth, predicted string) (float64, error) {
	resp, err := j.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(j.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(judgePrompt, question, groundTruth, predicted)),
		},
		Temperature: openai.Float(0.0),
	})
	if err != nil {
		return 0, fmt.Errorf("judge call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, errors.New("judge call: empty choices")
	}
	return parseScore(resp.Choices[0].Message.Content)
}

// parseScore extracts the first number in [0, 1] from the judge reply.
func parseScore(reply string) (float64, error) {
	match := scorePattern.FindString(strings.TrimSpace(reply))
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrJudgeUnparsable, reply)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrJudgeUnparsable, reply)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
