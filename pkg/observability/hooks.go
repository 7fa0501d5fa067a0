// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. A [PipelineHooks] value is attached to a
// pipeline runner and receives one event per stage and time step; the default
// is [NoopPipelineHooks].
//
// # Usage
//
//	runner := pipeline.NewRunner(archive, nil, logger)
//	runner.Hooks = observability.Multi(myMetrics, myTracer)
//
// Hooks are called synchronously on the runner's goroutine and must not
// block.
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the generation pipeline.
type PipelineHooks interface {
	// OnBuild fires once the grain graph is constructed.
	OnBuild(ctx context.Context, mode string, grains, arcs int, duration time.Duration, err error)

	// OnWrite fires after each time step snapshot is stored.
	OnWrite(ctx context.Context, step int, duration time.Duration, err error)

	// OnVerify fires after both encodings of a step are compared.
	OnVerify(ctx context.Context, step int, grains, mismatches int, err error)

	// OnExport fires after a bridge ran on a step.
	OnExport(ctx context.Context, step int, format string, files int, err error)
}

// =============================================================================
// No-op Implementation
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnBuild(context.Context, string, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnWrite(context.Context, int, time.Duration, error)             {}
func (NoopPipelineHooks) OnVerify(context.Context, int, int, int, error)                 {}
func (NoopPipelineHooks) OnExport(context.Context, int, string, int, error)              {}

var _ PipelineHooks = NoopPipelineHooks{}

// =============================================================================
// Fan-out
// =============================================================================

// multiHooks forwards every event to each hook in order.
type multiHooks []PipelineHooks

// Multi combines hooks. Nil entries are skipped; with nothing left it
// returns NoopPipelineHooks.
func Multi(hooks ...PipelineHooks) PipelineHooks {
	var m multiHooks
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	switch len(m) {
	case 0:
		return NoopPipelineHooks{}
	case 1:
		return m[0]
	}
	return m
}

func (m multiHooks) OnBuild(ctx context.Context, mode string, grains, arcs int, d time.Duration, err error) {
	for _, h := range m {
		h.OnBuild(ctx, mode, grains, arcs, d, err)
	}
}

func (m multiHooks) OnWrite(ctx context.Context, step int, d time.Duration, err error) {
	for _, h := range m {
		h.OnWrite(ctx, step, d, err)
	}
}

func (m multiHooks) OnVerify(ctx context.Context, step int, grains, mismatches int, err error) {
	for _, h := range m {
		h.OnVerify(ctx, step, grains, mismatches, err)
	}
}

func (m multiHooks) OnExport(ctx context.Context, step int, format string, files int, err error) {
	for _, h := range m {
		h.OnExport(ctx, step, format, files, err)
	}
}
