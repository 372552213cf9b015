//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry exposes request metrics for the memory API client.
// Instruments default to noop; installing a real MeterProvider is the
// embedding application's choice.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "memeval.memoryapi"

// Attribute keys and outcome values for memory API request metrics.
const (
	KeyEndpoint = "memeval.endpoint"
	KeyOutcome  = "memeval.outcome"

	OutcomeOK      = "ok"
	OutcomeRetried = "retried"
	OutcomeFailed  = "failed"
)

var (
	// MeterProvider is the provider all instruments are created from.
	MeterProvider metric.MeterProvider = noop.NewMeterProvider()

	Meter metric.Meter = MeterProvider.Meter(meterName)

	MemoryAPIRequestCnt      metric.Int64Counter     = noop.Int64Counter{}
	MemoryAPIRetryCnt        metric.Int64Counter     = noop.Int64Counter{}
	MemoryAPIRequestDuration metric.Float64Histogram = noop.Float64Histogram{}
)

// SetMeterProvider installs a real provider and rebuilds all instruments
// from it. Call before any requests are issued.
func SetMeterProvider(provider metric.MeterProvider) {
	if provider == nil {
		return
	}
	MeterProvider = provider
	Meter = MeterProvider.Meter(meterName)
	if counter, err := Meter.Int64Counter("memeval.memoryapi.request.count",
		metric.WithDescription("Number of memory API requests by outcome")); err == nil {
		MemoryAPIRequestCnt = counter
	}
	if counter, err := Meter.Int64Counter("memeval.memoryapi.retry.count",
		metric.WithDescription("Number of memory API request retries")); err == nil {
		MemoryAPIRetryCnt = counter
	}
	if histogram, err := Meter.Float64Histogram("memeval.memoryapi.request.duration",
		metric.WithDescription("Memory API request duration in seconds"),
		metric.WithUnit("s")); err == nil {
		MemoryAPIRequestDuration = histogram
	}
}

// IncRequestCnt counts one finished request with its outcome.
func IncRequestCnt(ctx context.Context, endpoint, outcome string) {
	MemoryAPIRequestCnt.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(KeyEndpoint, endpoint),
			attribute.String(KeyOutcome, outcome),
		))
}

// IncRetryCnt counts one retried attempt against an endpoint.
func IncRetryCnt(ctx context.Context, endpoint string) {
	MemoryAPIRetryCnt.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(KeyEndpoint, endpoint),
			attribute.String(KeyOutcome, OutcomeRetried),
		))
}

// RecordRequestDuration records one request's total duration in seconds,
// retries included.
func RecordRequestDuration(ctx context.Context, endpoint string, seconds float64) {
	MemoryAPIRequestDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String(KeyEndpoint, endpoint)))
}
