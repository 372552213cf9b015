//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunMetadata records the parameters and artifacts of one evaluation run.
type RunMetadata struct {
	ExperimentName string             `json:"experiment_name"`
	RunID          string             `json:"run_id"`
	Timestamp      string             `json:"timestamp"`
	Parameters     map[string]any     `json:"parameters"`
	Files          map[string]string  `json:"files"`
	OverallScores  map[string]float64 `json:"overall_scores,omitempty"`
	DepthSummary   []DepthStats       `json:"depth_summary,omitempty"`
}

// WriteMetadata persists run metadata as indented JSON.
func WriteMetadata(path string, metadata *RunMetadata) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metadata); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return nil
}
