//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package runner orchestrates the evaluation pipeline: dataset conversion,
// memory writes, search-and-respond, scoring and result aggregation.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/trpc-memeval-go/adder"
	"trpc.group/trpc-go/trpc-memeval-go/config"
	"trpc.group/trpc-go/trpc-memeval-go/dataset"
	"trpc.group/trpc-go/trpc-memeval-go/evalresult"
	"trpc.group/trpc-go/trpc-memeval-go/log"
	"trpc.group/trpc-go/trpc-memeval-go/memoryapi"
	"trpc.group/trpc-go/trpc-memeval-go/scoring"
	"trpc.group/trpc-go/trpc-memeval-go/searcher"
)

// Summary reports the outcome of one run: totals and failure counts per
// stage, plus the final score aggregates.
type Summary struct {
	ExperimentDir     string                    `json:"experiment_dir"`
	RunID             string                    `json:"run_id"`
	Conversations     int                       `json:"conversations"`
	Questions         int                       `json:"questions"`
	FailedQuestions   int                       `json:"failed_questions"`
	TotalBatches      int                       `json:"total_batches"`
	SuccessfulBatches int                       `json:"successful_batches"`
	FailedBatches     int                       `json:"failed_batches"`
	Records           int                       `json:"records"`
	CategoryMeans     []evalresult.CategoryMean `json:"category_means"`
	Overall           evalresult.CategoryMean   `json:"overall"`
}

// Runner runs evaluations. Construct with New; one Runner may execute
// multiple runs sequentially.
type Runner struct {
	cfg      *config.Config
	adder    *adder.Adder
	searcher *searcher.Searcher
	scorer   *scoring.Scorer
}

// New builds the pipeline components from configuration.
func New(cfg *config.Config) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Memory.RequestTimeoutSec) * time.Second
	memAdder, err := adder.New(cfg.Memory.BaseURL,
		adder.WithBatchSize(cfg.Run.BatchSize),
		adder.WithMaxConcurrent(cfg.Memory.MaxConcurrent),
		adder.WithInstructions(adder.DefaultInstructions),
		adder.WithClientOptions(memoryapi.WithTimeout(timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("create adder: %w", err)
	}
	llmOpts := buildLLMOptions(cfg)
	mode := searcher.ModePlain
	if cfg.Run.GraphMode {
		mode = searcher.ModeGraph
	}
	memSearcher, err := searcher.New(cfg.Memory.BaseURL,
		searcher.WithModel(cfg.LLM.Model),
		searcher.WithMode(mode),
		searcher.WithFilterMemories(cfg.Run.FilterMemories),
		searcher.WithClientOptions(memoryapi.WithTimeout(timeout)),
		searcher.WithLLMOptions(llmOpts...),
	)
	if err != nil {
		return nil, fmt.Errorf("create searcher: %w", err)
	}
	judge := scoring.NewJudge(cfg.LLM.JudgeModel, llmOpts...)
	return &Runner{
		cfg:      cfg,
		adder:    memAdder,
		searcher: memSearcher,
		scorer:   scoring.NewScorer(judge),
	}, nil
}

func buildLLMOptions(cfg *config.Config) []openaiopt.RequestOption {
	var opts []openaiopt.RequestOption
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openaiopt.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.APIKey != "" {
		opts = append(opts, openaiopt.WithAPIKey(cfg.LLM.APIKey))
	}
	return opts
}

// runState is the mutable state shared by question workers during one run.
// Everything in it is either internally synchronized or guarded by mu.
type runState struct {
	agg *evalresult.Aggregator

	mu              sync.Mutex
	depthResults    []searcher.DepthResult
	questions       int
	failedQuestions int
}

func (st *runState) recordDepthResults(results []searcher.DepthResult) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.depthResults = append(st.depthResults, results...)
}

func (st *runState) countQuestion(failed bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.questions++
	if failed {
		st.failedQuestions++
	}
}

// Run executes the full pipeline over the configured dataset and returns
// the run summary. Only dataset-load and snapshot-write failures are fatal;
// every per-batch, per-question and per-depth failure is isolated and
// counted.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	conversations, err := dataset.Load(r.cfg.Run.DatasetPath)
	if err != nil {
		return nil, err
	}
	stats := dataset.Statistics(conversations)
	log.Infof("dataset loaded: %d conversations, %d messages, %d questions, categories %v",
		stats.TotalConversations, stats.TotalMessages, stats.TotalQuestions, stats.CategoryCounts)
	if limit := r.cfg.Run.Limit; limit > 0 && limit < len(conversations) {
		conversations = conversations[:limit]
		log.Warnf("limited to %d conversations", limit)
	}

	experimentName := fmt.Sprintf("memeval_top%d_graph%v_%s",
		r.primaryTopK(), r.cfg.Run.GraphMode, time.Now().Format("20060102_150405"))
	experimentDir := filepath.Join(r.cfg.Run.OutputDir, experimentName)
	if err := os.MkdirAll(experimentDir, 0o755); err != nil {
		return nil, fmt.Errorf("create experiment dir: %w", err)
	}
	log.Infof("experiment %s: results in %s", experimentName, experimentDir)

	summary := &Summary{
		ExperimentDir: experimentDir,
		RunID:         uuid.NewString(),
		Conversations: len(conversations),
	}
	st := &runState{
		agg: evalresult.NewAggregator(filepath.Join(experimentDir, "evaluation_records.json")),
	}

	pool, err := createQuestionPool(r.cfg.Run.Workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	for idx, conv := range conversations {
		r.addConversation(ctx, conv, summary)
		r.processQuestions(ctx, pool, conv, st)
		if (idx+1)%r.cfg.Run.FlushEvery == 0 {
			if err := st.agg.Flush(); err != nil {
				return nil, err
			}
			log.Infof("progress: %d/%d conversations, %d records flushed",
				idx+1, len(conversations), st.agg.Len())
		}
	}
	if err := st.agg.Flush(); err != nil {
		return nil, err
	}

	records := st.agg.Snapshot()
	summary.Questions = st.questions
	summary.FailedQuestions = st.failedQuestions
	summary.Records = st.agg.Len()
	summary.CategoryMeans = evalresult.CategoryMeans(records)
	summary.Overall = evalresult.OverallMeans(records)

	if err := r.writeArtifacts(experimentDir, experimentName, summary, st); err != nil {
		return nil, err
	}
	log.Infof("run complete: %d/%d questions failed, %d/%d batches failed, overall f1=%.4f bleu=%.4f llm=%.4f",
		summary.FailedQuestions, summary.Questions,
		summary.FailedBatches, summary.TotalBatches,
		summary.Overall.F1Score, summary.Overall.BleuScore, summary.Overall.LLMScore)
	return summary, nil
}

// primaryTopK is the retrieval depth used for scored answers: the
// configured top_k, or the deepest sweep depth when only depths are set.
func (r *Runner) primaryTopK() int {
	if r.cfg.Run.TopK > 0 {
		return r.cfg.Run.TopK
	}
	depths := r.cfg.Run.Depths
	return depths[len(depths)-1]
}

// addConversation writes both speaker projections of one conversation to
// the memory store. Add failures are counted, never fatal.
func (r *Runner) addConversation(ctx context.Context, conv *dataset.Conversation, summary *Summary) {
	for _, speaker := range []string{conv.SpeakerA, conv.SpeakerB} {
		messages, metadata := dataset.Convert(conv, speaker)
		metrics, err := r.adder.AddConversation(ctx, conv.UserID(speaker), messages, metadata)
		if err != nil {
			log.Errorf("add conversation %s for %s: %v", conv.ID, speaker, err)
			continue
		}
		summary.TotalBatches += metrics.TotalBatches
		summary.SuccessfulBatches += metrics.SuccessfulBatches
		summary.FailedBatches += metrics.FailedBatches
		log.Debugf("added %s for %s: %d/%d batches ok, %.0f tok/s",
			conv.ID, speaker, metrics.SuccessfulBatches, metrics.TotalBatches,
			metrics.ThroughputTokensPerSec)
	}
}

// processQuestions runs all of one conversation's questions through the
// worker pool and waits for them to complete.
func (r *Runner) processQuestions(ctx context.Context, pool *ants.PoolWithFunc,
	conv *dataset.Conversation, st *runState) {
	var wg sync.WaitGroup
	for _, qa := range conv.QA {
		wg.Add(1)
		param := questionTaskParamPool.Get().(*questionTaskParam)
		param.ctx = ctx
		param.runner = r
		param.conv = conv
		param.qa = qa
		param.state = st
		param.wg = &wg
		if err := pool.Invoke(param); err != nil {
			// Pool rejected the task; run it inline rather than losing it.
			log.Warnf("question pool invoke: %v", err)
			r.processQuestion(ctx, conv, qa, st)
			wg.Done()
			param.reset()
			questionTaskParamPool.Put(param)
		}
	}
	wg.Wait()
}

// processQuestion answers and scores one question. Results are attributed
// through the conversation key carried on the record, never by position.
func (r *Runner) processQuestion(ctx context.Context, conv *dataset.Conversation,
	qa dataset.QA, st *runState) {
	speaker1 := searcher.Speaker{UserID: conv.UserID(conv.SpeakerA), Name: conv.SpeakerA}
	speaker2 := searcher.Speaker{UserID: conv.UserID(conv.SpeakerB), Name: conv.SpeakerB}

	if len(r.cfg.Run.Depths) > 0 {
		// Retrieval depth sweep for performance comparison; scored answers
		// come from the primary depth below.
		st.recordDepthResults(r.searcher.SearchAndRespond(ctx, speaker1.UserID, qa.Question, r.cfg.Run.Depths))
	}

	result, err := r.searcher.AnswerQuestion(ctx, speaker1, speaker2, qa.Question, r.primaryTopK())
	if err != nil {
		log.Warnf("question %q on conversation %s: %v", qa.Question, conv.ID, err)
		st.countQuestion(true)
		st.agg.Append(conv.ID, &scoring.Record{
			Question:     qa.Question,
			Answer:       qa.Answer,
			Category:     qa.Category,
			CategoryName: dataset.CategoryName(qa.Category),
			Error:        err.Error(),
		})
		return
	}
	record := r.scorer.Score(ctx, qa.Question, qa.Answer, result.Answer, qa.Category)
	st.countQuestion(false)
	st.agg.Append(conv.ID, record)
}

// writeArtifacts persists the per-category CSV and the run metadata file.
func (r *Runner) writeArtifacts(experimentDir, experimentName string, summary *Summary, st *runState) error {
	scoresPath := filepath.Join(experimentDir, "scores.csv")
	if err := evalresult.WriteScoresCSV(scoresPath, summary.CategoryMeans, summary.Overall); err != nil {
		return err
	}
	metadata := &evalresult.RunMetadata{
		ExperimentName: experimentName,
		RunID:          summary.RunID,
		Timestamp:      time.Now().Format(time.RFC3339),
		Parameters: map[string]any{
			"dataset":         r.cfg.Run.DatasetPath,
			"top_k":           r.primaryTopK(),
			"depths":          r.cfg.Run.Depths,
			"batch_size":      r.cfg.Run.BatchSize,
			"max_concurrent":  r.cfg.Memory.MaxConcurrent,
			"workers":         r.cfg.Run.Workers,
			"filter_memories": r.cfg.Run.FilterMemories,
			"graph_mode":      r.cfg.Run.GraphMode,
			"model":           r.cfg.LLM.Model,
			"judge_model":     r.cfg.LLM.JudgeModel,
		},
		Files: map[string]string{
			"evaluation_records": filepath.Join(experimentDir, "evaluation_records.json"),
			"scores_csv":         scoresPath,
		},
		OverallScores: map[string]float64{
			"bleu_score": summary.Overall.BleuScore,
			"f1_score":   summary.Overall.F1Score,
			"llm_score":  summary.Overall.LLMScore,
		},
		DepthSummary: evalresult.SummarizeDepths(st.depthResults),
	}
	return evalresult.WriteMetadata(filepath.Join(experimentDir, "metadata.json"), metadata)
}
