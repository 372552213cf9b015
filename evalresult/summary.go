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
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"trpc.group/trpc-go/trpc-memeval-go/dataset"
	"trpc.group/trpc-go/trpc-memeval-go/scoring"
)

// CategoryMean holds mean scores for one question category. The LLM mean
// averages judged records only, so failed judgements never dilute it.
type CategoryMean struct {
	CategoryName string  `json:"category_name"`
	BleuScore    float64 `json:"bleu_score"`
	F1Score      float64 `json:"f1_score"`
	LLMScore     float64 `json:"llm_score"`
	Count        int     `json:"count"`
	JudgedCount  int     `json:"judged_count"`
}

// CategoryMeans computes per-category mean scores over all records,
// excluding adversarial (category "5") questions from every aggregate.
// Results are sorted by category name.
func CategoryMeans(records map[string][]*scoring.Record) []CategoryMean {
	byCategory := make(map[string]*CategoryMean)
	for _, recs := range records {
		for _, rec := range recs {
			if rec.Category == dataset.CategoryAdversarial {
				continue
			}
			mean, ok := byCategory[rec.CategoryName]
			if !ok {
				mean = &CategoryMean{CategoryName: rec.CategoryName}
				byCategory[rec.CategoryName] = mean
			}
			accumulate(mean, rec)
		}
	}
	means := make([]CategoryMean, 0, len(byCategory))
	for _, mean := range byCategory {
		finalize(mean)
		means = append(means, *mean)
	}
	sort.Slice(means, func(i, j int) bool {
		return means[i].CategoryName < means[j].CategoryName
	})
	return means
}

// OverallMeans computes mean scores over all non-adversarial records.
func OverallMeans(records map[string][]*scoring.Record) CategoryMean {
	overall := &CategoryMean{CategoryName: "overall"}
	for _, recs := range records {
		for _, rec := range recs {
			if rec.Category == dataset.CategoryAdversarial {
				continue
			}
			accumulate(overall, rec)
		}
	}
	finalize(overall)
	return *overall
}

func accumulate(mean *CategoryMean, rec *scoring.Record) {
	mean.BleuScore += rec.BleuScore
	mean.F1Score += rec.F1Score
	mean.Count++
	if rec.LLMScore != nil {
		mean.LLMScore += *rec.LLMScore
		mean.JudgedCount++
	}
}

func finalize(mean *CategoryMean) {
	if mean.Count > 0 {
		mean.BleuScore /= float64(mean.Count)
		mean.F1Score /= float64(mean.Count)
	}
	if mean.JudgedCount > 0 {
		mean.LLMScore /= float64(mean.JudgedCount)
	}
}

// WriteScoresCSV writes per-category means plus an overall row.
func WriteScoresCSV(path string, means []CategoryMean, overall CategoryMean) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create scores csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"category_name", "bleu_score", "f1_score", "llm_score", "count"}); err != nil {
		return fmt.Errorf("write scores csv header: %w", err)
	}
	rows := append(append([]CategoryMean{}, means...), overall)
	for _, mean := range rows {
		row := []string{
			mean.CategoryName,
			formatScore(mean.BleuScore),
			formatScore(mean.F1Score),
			formatScore(mean.LLMScore),
			fmt.Sprintf("%d", mean.Count),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write scores csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush scores csv: %w", err)
	}
	return nil
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}
