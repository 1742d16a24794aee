// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "clangtide" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "clangtide")
	}
	if cfg.TraceExporter != "none" {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, "none")
	}
	if cfg.MetricExporter != "none" {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, "none")
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "localhost:4317")
	}
}

func TestInit_NilContext(t *testing.T) {
	cfg := DefaultConfig()

	_, err := Init(nil, cfg) //nolint:staticcheck
	if err != ErrNilContext {
		t.Errorf("Init(nil, cfg) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_NoopExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if shutdown == nil {
		t.Fatal("shutdown function is nil")
	}

	// Verify shutdown works
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	// Verify tracer is configured
	tracer := otel.Tracer("test")
	if tracer == nil {
		t.Error("tracer is nil")
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "unknown_exporter"

	_, err := Init(context.Background(), cfg)
	if err == nil {
		t.Fatal("Init() with unknown exporter should fail")
	}
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("error = %v, want ErrUnknownExporter", err)
	}
}

func TestInit_UnknownMetricExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "statsd"

	_, err := Init(context.Background(), cfg)
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("error = %v, want ErrUnknownExporter", err)
	}
}

func TestMetricsHandler_NilWithoutPrometheus(t *testing.T) {
	prometheusHandlerMu.Lock()
	prometheusHandler = nil
	prometheusHandlerMu.Unlock()

	if h := MetricsHandler(); h != nil {
		t.Errorf("MetricsHandler() = %v, want nil before prometheus init", h)
	}
}

func TestStartSpan(t *testing.T) {
	// In-memory provider so spans have valid contexts without exporters.
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	ctx, span := StartSpan(context.Background(), "clangtide.test", "run")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("StartSpan produced invalid span context")
	}
	if got := TraceID(ctx); got == "" || len(got) != 32 {
		t.Errorf("TraceID(ctx) = %q, want 32 hex chars", got)
	}
	if trace.SpanFromContext(ctx) != span {
		t.Error("started span not attached to the returned context")
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID without span = %q, want empty", got)
	}
}

func TestRecordError_NilSafe(t *testing.T) {
	// Must not panic.
	RecordError(nil, errors.New("boom"))
	SetSpanOK(nil)
	SetSpanAttributes(nil)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	_, span := StartSpan(context.Background(), "clangtide.test", "errcase")
	defer span.End()
	RecordError(span, nil) // nil error is a no-op
	RecordError(span, errors.New("tool failed"))
}

func TestGetEnvOr(t *testing.T) {
	t.Setenv("CLANGTIDE_TEST_ENV_KEY", "set")
	if got := getEnvOr("CLANGTIDE_TEST_ENV_KEY", "fallback"); got != "set" {
		t.Errorf("getEnvOr = %q, want set", got)
	}
	if got := getEnvOr("CLANGTIDE_TEST__MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnvOr = %q, want fallback", got)
	}
	if strings.TrimSpace(getEnvOr("CLANGTIDE_TEST_ _MISSING", "")) != "" {
		t.Error("empty fallback should pass through")
	}
}
