//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import "fmt"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn in the memory API's schema. Created
// during conversion, never mutated.
type Message struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	Timestamp    string `json:"timestamp,omitempty"`
	SessionIndex int    `json:"session_index"`
	TurnID       string `json:"turn_id"`
}

// Metadata carries per-conversation conversion context submitted alongside
// every write.
type Metadata struct {
	ConversationID string `json:"conversation_id"`
	SpeakerA       string `json:"speaker_a,omitempty"`
	SpeakerB       string `json:"speaker_b,omitempty"`
	MessageCount   int    `json:"message_count"`
}

// Convert maps a conversation into role-tagged messages ordered by session
// then in-session order, from the perspective of the given speaker: that
// speaker's turns become user messages, the other side's become assistant
// messages. Every message carries the session timestamp and a synthetic
// turn identifier.
func Convert(conv *Conversation, perspective string) ([]Message, *Metadata) {
	messages := make([]Message, 0, conv.TurnCount())
	for sessionIdx, session := range conv.Sessions {
		for _, turn := range session.Turns {
			role := RoleAssistant
			if turn.Speaker == perspective {
				role = RoleUser
			}
			messages = append(messages, Message{
				Role:         role,
				Content:      fmt.Sprintf("%s: %s", turn.Speaker, turn.Text),
				Timestamp:    session.DateTime,
				SessionIndex: sessionIdx,
				TurnID:       fmt.Sprintf("%s_session%d_turn%d", conv.ID, sessionIdx, len(messages)),
			})
		}
	}
	metadata := &Metadata{
		ConversationID: conv.ID,
		SpeakerA:       conv.SpeakerA,
		SpeakerB:       conv.SpeakerB,
		MessageCount:   len(messages),
	}
	return messages, metadata
}

// Stats summarizes dataset scale for sanity checking before a run.
type Stats struct {
	TotalConversations int            `json:"total_conversations"`
	TotalMessages      int            `json:"total_messages"`
	TotalQuestions     int            `json:"total_questions"`
	CategoryCounts     map[string]int `json:"category_counts"`
}

// Statistics computes per-dataset conversion statistics. Message counts use
// the speaker-A perspective; the projection for speaker B has the same size.
func Statistics(conversations []*Conversation) *Stats {
	stats := &Stats{CategoryCounts: make(map[string]int)}
	stats.TotalConversations = len(conversations)
	for _, conv := range conversations {
		stats.TotalMessages += conv.TurnCount()
		stats.TotalQuestions += len(conv.QA)
		for _, qa := range conv.QA {
			stats.CategoryCounts[CategoryName(qa.Category)]++
		}
	}
	return stats
}
