//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads the harness run configuration from defaults,
// an optional YAML file and MEMEVAL_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full configuration surface of one evaluation run.
type Config struct {
	Memory MemoryConfig `mapstructure:"memory"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Run    RunConfig    `mapstructure:"run"`
}

// MemoryConfig points at the memory service under evaluation.
type MemoryConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
	MaxConcurrent     int    `mapstructure:"max_concurrent"`
}

// LLMConfig points at the generation and judge backends.
type LLMConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	JudgeModel string `mapstructure:"judge_model"`
}

// RunConfig holds per-run evaluation parameters.
type RunConfig struct {
	DatasetPath    string `mapstructure:"dataset_path"`
	OutputDir      string `mapstructure:"output_dir"`
	BatchSize      int    `mapstructure:"batch_size"`
	Workers        int    `mapstructure:"workers"`
	TopK           int    `mapstructure:"top_k"`
	Depths         []int  `mapstructure:"depths"`
	FilterMemories bool   `mapstructure:"filter_memories"`
	GraphMode      bool   `mapstructure:"graph_mode"`
	FlushEvery     int    `mapstructure:"flush_every"`
	Limit          int    `mapstructure:"limit"`
	LogLevel       string `mapstructure:"log_level"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MEMEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("memory.base_url", "http://127.0.0.1:7000")
	v.SetDefault("memory.request_timeout_sec", 300)
	v.SetDefault("memory.max_concurrent", 3)

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.judge_model", "gpt-4o-mini")

	v.SetDefault("run.output_dir", "results")
	v.SetDefault("run.batch_size", 2)
	v.SetDefault("run.workers", 10)
	v.SetDefault("run.top_k", 30)
	v.SetDefault("run.depths", []int{})
	v.SetDefault("run.filter_memories", false)
	v.SetDefault("run.graph_mode", false)
	v.SetDefault("run.flush_every", 10)
	v.SetDefault("run.limit", 0)
	v.SetDefault("run.log_level", "info")
}

// Validate checks invariants that would otherwise surface mid-run.
func (c *Config) Validate() error {
	if c.Memory.BaseURL == "" {
		return errors.New("memory base URL is required")
	}
	if c.Run.BatchSize <= 0 {
		return errors.New("batch size must be greater than 0")
	}
	if c.Memory.MaxConcurrent <= 0 {
		return errors.New("max concurrent must be greater than 0")
	}
	if c.Run.Workers <= 0 {
		return errors.New("workers must be greater than 0")
	}
	if c.Run.TopK <= 0 && len(c.Run.Depths) == 0 {
		return errors.New("top_k or depths must be set")
	}
	for _, d := range c.Run.Depths {
		if d <= 0 {
			return fmt.Errorf("retrieval depth must be greater than 0, got %d", d)
		}
	}
	if c.Run.FlushEvery <= 0 {
		return errors.New("flush_every must be greater than 0")
	}
	return nil
}
