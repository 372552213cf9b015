//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"trpc.group/trpc-go/trpc-memeval-go/log"
)

var sessionKeyPattern = regexp.MustCompile(`^session_(\d+)$`)

type rawItem struct {
	SampleID     string                     `json:"sample_id"`
	Conversation map[string]json.RawMessage `json:"conversation"`
	QA           []QA                       `json:"qa"`
}

// Load reads a benchmark dataset file and parses every conversation.
// Structurally defective records are skipped and logged; a file that cannot
// be read or decoded at all is fatal for the run.
func Load(path string) ([]*Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	var items []rawItem
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	conversations := make([]*Conversation, 0, len(items))
	skipped := 0
	for idx, item := range items {
		conv, err := parseConversation(idx, item)
		if err != nil {
			skipped++
			log.Warnf("skipping dataset record: %v", err)
			continue
		}
		conversations = append(conversations, conv)
	}
	if skipped > 0 {
		log.Warnf("dataset %s: skipped %d of %d records", path, skipped, len(items))
	}
	return conversations, nil
}

// parseConversation turns one raw record into a Conversation. The session
// keys carry a numeric suffix that determines ordering; per-session
// timestamps live in sibling "<key>_date_time" entries. Missing optional
// fields (timestamps, categories) default to empty values.
func parseConversation(idx int, item rawItem) (*Conversation, error) {
	if len(item.Conversation) == 0 {
		return nil, &MalformedRecordError{Index: idx, Reason: "conversation body is absent"}
	}

	conv := &Conversation{
		ID: item.SampleID,
		QA: item.QA,
	}
	if conv.ID == "" {
		conv.ID = strconv.Itoa(idx)
	}
	if raw, ok := item.Conversation["speaker_a"]; ok {
		_ = json.Unmarshal(raw, &conv.SpeakerA)
	}
	if raw, ok := item.Conversation["speaker_b"]; ok {
		_ = json.Unmarshal(raw, &conv.SpeakerB)
	}

	for key, raw := range item.Conversation {
		m := sessionKeyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		var turns []Turn
		if err := json.Unmarshal(raw, &turns); err != nil {
			return nil, &MalformedRecordError{Index: idx, Reason: fmt.Sprintf("session %s is not a turn list", key)}
		}
		session := Session{
			Index: index,
			Key:   key,
			Turns: turns,
		}
		if rawDate, ok := item.Conversation[key+"_date_time"]; ok {
			_ = json.Unmarshal(rawDate, &session.DateTime)
		}
		conv.Sessions = append(conv.Sessions, session)
	}
	if len(conv.Sessions) == 0 {
		return nil, &MalformedRecordError{Index: idx, Reason: "conversation has no sessions"}
	}
	sort.Slice(conv.Sessions, func(i, j int) bool {
		return conv.Sessions[i].Index < conv.Sessions[j].Index
	})
	return conv, nil
}
