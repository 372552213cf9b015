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
	"sort"

	"trpc.group/trpc-go/trpc-memeval-go/searcher"
)

// TimeStats aggregates one latency series in milliseconds.
type TimeStats struct {
	AvgMS float64 `json:"average_time_ms"`
	MinMS float64 `json:"min_time_ms"`
	MaxMS float64 `json:"max_time_ms"`
}

// TokenStats aggregates token volumes for one retrieval depth.
type TokenStats struct {
	AvgTotal    float64 `json:"average_total_tokens"`
	TotalPrompt int64   `json:"total_prompt_tokens"`
	TotalOutput int64   `json:"total_completion_tokens"`
	Total       int64   `json:"total_tokens"`
}

// DepthStats summarizes performance for one retrieval depth across a run.
// Error-flagged results count toward Errors and are excluded from the
// latency and token series.
type DepthStats struct {
	TopK     int        `json:"top_k"`
	Count    int        `json:"count"`
	Errors   int        `json:"errors"`
	Search   TimeStats  `json:"search"`
	Response TimeStats  `json:"response"`
	Total    TimeStats  `json:"total"`
	Tokens   TokenStats `json:"tokens"`
}

// SummarizeDepths groups per-depth search results by retrieval depth and
// aggregates their latency and token series, sorted by depth.
func SummarizeDepths(results []searcher.DepthResult) []DepthStats {
	byDepth := make(map[int][]searcher.DepthResult)
	for _, r := range results {
		byDepth[r.TopK] = append(byDepth[r.TopK], r)
	}
	stats := make([]DepthStats, 0, len(byDepth))
	for topK, group := range byDepth {
		stats = append(stats, summarizeDepth(topK, group))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TopK < stats[j].TopK })
	return stats
}

func summarizeDepth(topK int, group []searcher.DepthResult) DepthStats {
	ds := DepthStats{TopK: topK, Count: len(group)}
	var searchTimes, responseTimes, totalTimes []float64
	for _, r := range group {
		if r.Error != "" {
			ds.Errors++
			continue
		}
		searchTimes = append(searchTimes, r.SearchTimeMS)
		responseTimes = append(responseTimes, r.ResponseTimeMS)
		totalTimes = append(totalTimes, r.TotalTimeMS)
		ds.Tokens.TotalPrompt += r.Tokens.PromptTokens
		ds.Tokens.TotalOutput += r.Tokens.CompletionTokens
		ds.Tokens.Total += r.Tokens.TotalTokens
	}
	ds.Search = timeStats(searchTimes)
	ds.Response = timeStats(responseTimes)
	ds.Total = timeStats(totalTimes)
	if n := len(searchTimes); n > 0 {
		ds.Tokens.AvgTotal = float64(ds.Tokens.Total) / float64(n)
	}
	return ds
}

func timeStats(series []float64) TimeStats {
	if len(series) == 0 {
		return TimeStats{}
	}
	stats := TimeStats{MinMS: series[0], MaxMS: series[0]}
	sum := 0.0
	for _, v := range series {
		sum += v
		if v < stats.MinMS {
			stats.MinMS = v
		}
		if v > stats.MaxMS {
			stats.MaxMS = v
		}
	}
	stats.AvgMS = sum / float64(len(series))
	return stats
}
