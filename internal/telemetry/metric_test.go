//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestSetMeterProviderRebuildsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	SetMeterProvider(provider)

	ctx := context.Background()
	IncRequestCnt(ctx, "/memories", OutcomeOK)
	IncRequestCnt(ctx, "/memories", OutcomeFailed)
	IncRetryCnt(ctx, "/search")
	RecordRequestDuration(ctx, "/search", 0.25)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["memeval.memoryapi.request.count"])
	assert.True(t, names["memeval.memoryapi.retry.count"])
	assert.True(t, names["memeval.memoryapi.request.duration"])
}

func TestSetMeterProviderIgnoresNil(t *testing.T) {
	before := MeterProvider
	SetMeterProvider(nil)
	assert.Equal(t, before, MeterProvider)
}
