//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package adder

import "trpc.group/trpc-go/trpc-memeval-go/memoryapi"

const (
	defaultBatchSize     = 2
	defaultMaxConcurrent = 3
)

// DefaultInstructions guides the backend's fact extraction toward
// self-contained personal memories with names, dates and emotional context.
const DefaultInstructions = `Generate personal memories that follow these guidelines:

1. Each memory should be self-contained with complete context, including:
   - The person's name, do not use "user" while creating memories
   - Personal details (career aspirations, hobbies, life circumstances)
   - Emotional states and reactions
   - Ongoing journeys or future plans
   - Specific dates when events occurred

2. Make each memory rich with specific details rather than general statements
   - Include timeframes (exact dates when possible)
   - Name specific activities rather than generic ones
   - Include emotional context and personal growth elements

3. Extract memories only from user messages, not incorporating assistant responses

4. Format each memory as a paragraph with a clear narrative structure that
   captures the person's experience, challenges, and aspirations`

type options struct {
	batchSize     int
	maxConcurrent int
	clientOpts    []memoryapi.Option
	instructions  string
}

func newOptions(opt ...Option) *options {
	opts := &options{
		batchSize:     defaultBatchSize,
		maxConcurrent: defaultMaxConcurrent,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures the Adder.
type Option func(*options)

// WithBatchSize sets the number of messages submitted per write request.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithMaxConcurrent bounds in-flight batch submissions per conversation.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithClientOptions forwards extra options to the memory API client.
func WithClientOptions(opt ...memoryapi.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opt...)
	}
}

// WithInstructions attaches custom fact-extraction instructions to every
// write request's metadata.
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}
