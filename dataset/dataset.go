//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package dataset loads benchmark dialogue datasets and converts them into
// the memory API's message schema.
package dataset

import (
	"encoding/json"
	"fmt"
)

// Category identifiers used by the benchmark's question tags.
const (
	CategoryAdversarial = "5"
)

// CategoryNames maps benchmark category identifiers to readable names.
var CategoryNames = map[string]string{
	"1": "multi-hop",
	"2": "temporal",
	"3": "open-domain",
	"4": "single-hop",
	"5": "adversarial",
}

// CategoryName resolves a category identifier to its readable name.
func CategoryName(category string) string {
	if name, ok := CategoryNames[category]; ok {
		return name
	}
	return fmt.Sprintf("category_%s", category)
}

// Turn is a single utterance inside a session.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Session is an ordered list of turns recorded at one point in time.
type Session struct {
	Index    int    `json:"index"`
	Key      string `json:"key"`
	DateTime string `json:"date_time"`
	Turns    []Turn `json:"turns"`
}

// QA is one benchmark question with its ground truth and category tag.
type QA struct {
	Question          string          `json:"question"`
	Answer            string          `json:"answer"`
	Category          string          `json:"category"`
	Evidence          json.RawMessage `json:"evidence,omitempty"`
	AdversarialAnswer string          `json:"adversarial_answer,omitempty"`
}

// UnmarshalJSON tolerates the dataset's loosely typed answer and category
// fields: both may arrive as numbers or strings, and both are optional.
func (q *QA) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question          string          `json:"question"`
		Answer            any             `json:"answer"`
		Category          any             `json:"category"`
		Evidence          json.RawMessage `json:"evidence"`
		AdversarialAnswer string          `json:"adversarial_answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Question = raw.Question
	q.Answer = looseString(raw.Answer)
	q.Category = looseString(raw.Category)
	q.Evidence = raw.Evidence
	q.AdversarialAnswer = raw.AdversarialAnswer
	return nil
}

func looseString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; categories and some answers are integers.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Conversation is one benchmark conversation: two speakers, ordered
// sessions and the question/answer pairs asked about it. Immutable once
// loaded.
type Conversation struct {
	ID       string    `json:"id"`
	SpeakerA string    `json:"speaker_a"`
	SpeakerB string    `json:"speaker_b"`
	Sessions []Session `json:"sessions"`
	QA       []QA      `json:"qa"`
}

// UserID returns the memory-store user identity for one speaker of this
// conversation. Identities are namespaced by conversation so parallel
// conversations never share memories.
func (c *Conversation) UserID(speaker string) string {
	return fmt.Sprintf("%s_%s", speaker, c.ID)
}

// TurnCount returns the total number of turns across all sessions.
func (c *Conversation) TurnCount() int {
	n := 0
	for _, s := range c.Sessions {
		n += len(s.Turns)
	}
	return n
}
