//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package main runs the memory evaluation harness from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"trpc.group/trpc-go/trpc-memeval-go/config"
	"trpc.group/trpc-go/trpc-memeval-go/log"
	"trpc.group/trpc-go/trpc-memeval-go/runner"
)

var (
	configPath  = flag.String("config", "", "Path to the YAML configuration file (optional)")
	datasetPath = flag.String("dataset", "", "Path to the benchmark dataset JSON file")
	outputDir   = flag.String("output", "", "Directory for experiment results")
	topK        = flag.Int("top_k", 0, "Number of memories to retrieve per search")
	depths      = flag.String("depths", "", "Comma-separated retrieval depths to sweep, e.g. 10,30,50")
	graphMode   = flag.Bool("graph", false, "Enable graph-enriched retrieval")
	limit       = flag.Int("limit", 0, "Evaluate only the first N conversations (0 = all)")
	workers     = flag.Int("workers", 0, "Number of concurrent question workers")
	concurrency = flag.Int("concurrency", 0, "Max in-flight memory API requests per conversation")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.Run.LogLevel)

	r, err := runner.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create runner: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := r.Run(ctx)
	if err != nil {
		log.Errorf("run failed: %v", err)
		os.Exit(1)
	}
	printSummary(summary)
}

// applyFlags overrides file and environment configuration with any flag
// the user set explicitly.
func applyFlags(cfg *config.Config) error {
	if *datasetPath != "" {
		cfg.Run.DatasetPath = *datasetPath
	}
	if *outputDir != "" {
		cfg.Run.OutputDir = *outputDir
	}
	if *topK > 0 {
		cfg.Run.TopK = *topK
	}
	if *depths != "" {
		parsed, err := parseDepths(*depths)
		if err != nil {
			return err
		}
		cfg.Run.Depths = parsed
	}
	if *graphMode {
		cfg.Run.GraphMode = true
	}
	if *limit > 0 {
		cfg.Run.Limit = *limit
	}
	if *workers > 0 {
		cfg.Run.Workers = *workers
	}
	if *concurrency > 0 {
		cfg.Memory.MaxConcurrent = *concurrency
	}
	if *logLevel != "" {
		cfg.Run.LogLevel = *logLevel
	}
	if cfg.Run.DatasetPath == "" {
		return fmt.Errorf("dataset path is required (use -dataset or run.dataset_path)")
	}
	return cfg.Validate()
}

func parseDepths(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid depth %q in -depths", p)
		}
		out = append(out, d)
	}
	return out, nil
}

func printSummary(s *runner.Summary) {
	fmt.Printf("\nExperiment: %s (run %s)\n", s.ExperimentDir, s.RunID)
	fmt.Printf("Conversations: %d  Questions: %d (%d failed)\n",
		s.Conversations, s.Questions, s.FailedQuestions)
	fmt.Printf("Batches: %d/%d successful\n", s.SuccessfulBatches, s.TotalBatches)
	fmt.Println("\nScores by category:")
	for _, cm := range s.CategoryMeans {
		fmt.Printf("  %-12s  n=%-4d  bleu=%.4f  f1=%.4f  llm=%.4f\n",
			cm.CategoryName, cm.Count, cm.BleuScore, cm.F1Score, cm.LLMScore)
	}
	fmt.Printf("  %-12s  n=%-4d  bleu=%.4f  f1=%.4f  llm=%.4f\n",
		"overall", s.Overall.Count, s.Overall.BleuScore, s.Overall.F1Score, s.Overall.LLMScore)
}
