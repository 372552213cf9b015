//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-memeval-go/dataset"
)

type questionTaskParam struct {
	ctx    context.Context
	runner *Runner
	conv   *dataset.Conversation
	qa     dataset.QA
	state  *runState
	wg     *sync.WaitGroup
}

func (p *questionTaskParam) reset() {
	p.ctx = nil
	p.runner = nil
	p.conv = nil
	p.qa = dataset.QA{}
	p.state = nil
	p.wg = nil
}

var questionTaskParamPool = &sync.Pool{
	New: func() any { return new(questionTaskParam) },
}

func createQuestionPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*questionTaskParam)
		if !ok {
			panic("question pool args type error")
		}
		wg := param.wg
		defer func() {
			wg.Done()
			param.reset()
			questionTaskParamPool.Put(param)
		}()
		param.runner.processQuestion(param.ctx, param.conv, param.qa, param.state)
	})
	if err != nil {
		return nil, fmt.Errorf("create question pool: %w", err)
	}
	return pool, nil
}
