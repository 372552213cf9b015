//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package evalresult accumulates evaluation records across worker tasks
// and persists them incrementally.
package evalresult

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trpc.group/trpc-go/trpc-memeval-go/scoring"
)

// ErrAggregatorIO marks a persistence failure. On-disk consistency cannot
// be guaranteed past this point, so it is fatal for the run.
var ErrAggregatorIO = errors.New("aggregator io failure")

// IOError reports which snapshot write failed.
type IOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("write snapshot %s: %v", e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrAggregatorIO and the cause.
func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target matches the aggregator IO sentinel.
func (e *IOError) Is(target error) bool { return target == ErrAggregatorIO }

// Aggregator is the single owner of the shared result mapping and its
// backing file. Appends from any number of workers serialize on one mutex;
// Flush rewrites the whole snapshot so readers always see a consistent
// full-state file.
type Aggregator struct {
	mu      sync.Mutex
	records map[string][]*scoring.Record
	path    string
}

// NewAggregator creates an aggregator persisting to the given file path.
func NewAggregator(path string) *Aggregator {
	return &Aggregator{
		records: make(map[string][]*scoring.Record),
		path:    path,
	}
}

// Append adds a record under a conversation key. Safe for concurrent use.
func (a *Aggregator) Append(conversationKey string, record *scoring.Record) {
	if record == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[conversationKey] = append(a.records[conversationKey], record)
}

// Len returns the total number of appended records.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, recs := range a.records {
		n += len(recs)
	}
	return n
}

// Snapshot returns a copy of the result mapping. Record pointers are
// shared; records are never mutated after scoring.
func (a *Aggregator) Snapshot() map[string][]*scoring.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() map[string][]*scoring.Record {
	out := make(map[string][]*scoring.Record, len(a.records))
	for key, recs := range a.records {
		cp := make([]*scoring.Record, len(recs))
		copy(cp, recs)
		out[key] = cp
	}
	return out
}

// Flush writes the full current state to the backing file, replacing the
// previous snapshot atomically. Idempotent: flushing twice with no
// intervening appends produces the same file.
func (a *Aggregator) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return &IOError{Path: a.path, Err: err}
	}
	tmp := a.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOError{Path: a.path, Err: err}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.records); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return &IOError{Path: a.path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Path: a.path, Err: err}
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return &IOError{Path: a.path, Err: err}
	}
	return nil
}
