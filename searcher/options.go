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
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1000
)

type options struct {
	model          string
	mode           Mode
	filterMemories bool
	maxTokens      int64
	clientOpts     []memoryapi.Option
	llmOpts        []openaiopt.RequestOption
}

func newOptions(opt ...Option) *options {
	opts := &options{
		model:     defaultModel,
		mode:      ModePlain,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures the Searcher.
type Option func(*options)

// WithModel sets the generation model name.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMode selects the prompt variant for the whole searcher instance.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithFilterMemories forwards the backend's memory filtering flag.
func WithFilterMemories(filter bool) Option {
	return func(o *options) {
		o.filterMemories = filter
	}
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithClientOptions forwards extra options to the memory API client.
func WithClientOptions(opt ...memoryapi.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opt...)
	}
}

// WithLLMOptions forwards request options (base URL, API key) to the
// generation client.
func WithLLMOptions(opt ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.llmOpts = append(o.llmOpts, opt...)
	}
}
