// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/taxtrace/services/engine/datatypes"
	"github.com/AleutianAI/taxtrace/services/engine/federal"
	"github.com/AleutianAI/taxtrace/services/engine/provenance"
	"github.com/AleutianAI/taxtrace/services/engine/states"
)

var (
	tracer = otel.Tracer("taxtrace.engine")
	meter  = otel.Meter("taxtrace.engine")
)

// UnknownJurisdictionPolicy controls what happens when a return names
// a jurisdiction no registered module handles.
type UnknownJurisdictionPolicy int

const (
	// UnknownSkip drops the jurisdiction silently from the run.
	UnknownSkip UnknownJurisdictionPolicy = iota
	// UnknownWarn drops it and logs a warning.
	UnknownWarn
	// UnknownError fails the whole run with ErrUnknownJurisdiction.
	UnknownError
)

// Result is the output of one full computation run.
//
// States preserves the order the jurisdictions were requested in,
// regardless of how the modules were scheduled.
type Result struct {
	RunID           string
	Federal         *federal.Result
	States          []states.Result
	ExecutedModules []string
	Values          *provenance.Store
	Gates           *GateReport

	labels map[string]string
}

// Orchestrator drives a computation run end to end: federal pipeline,
// jurisdiction modules, provenance collection, and quality gates.
//
// Thread Safety:
//
//	Orchestrator is safe for concurrent use; runs share no state
//	beyond the immutable registry and lazily initialized metrics.
type Orchestrator struct {
	registry      *Registry
	logger        *slog.Logger
	unknownPolicy UnknownJurisdictionPolicy

	metricsOnce  sync.Once
	runLatency   metric.Float64Histogram
	runTotal     metric.Int64Counter
	gateFailures metric.Int64Counter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the run logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry substitutes the module registry. Defaults to
// DefaultRegistry().
func WithRegistry(reg *Registry) Option {
	return func(o *Orchestrator) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithUnknownJurisdictionPolicy sets how unrecognized jurisdiction
// codes are handled. Defaults to UnknownSkip.
func WithUnknownJurisdictionPolicy(p UnknownJurisdictionPolicy) Option {
	return func(o *Orchestrator) {
		o.unknownPolicy = p
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      DefaultRegistry(),
		logger:        slog.Default(),
		unknownPolicy: UnknownSkip,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ComputeAll is a convenience wrapper: one run on a fresh Orchestrator.
func ComputeAll(ctx context.Context, ret *datatypes.Return, opts ...Option) (*Result, error) {
	return New(opts...).Run(ctx, ret)
}

// initMetrics lazily initializes metrics. Creation failures degrade
// observability, never the run.
func (o *Orchestrator) initMetrics() {
	o.metricsOnce.Do(func() {
		var initErrors []string

		var err error
		o.runLatency, err = meter.Float64Histogram("engine_run_duration_seconds",
			metric.WithDescription("Time spent on one full computation run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "run_latency: "+err.Error())
		}

		o.runTotal, err = meter.Int64Counter("engine_run_total",
			metric.WithDescription("Number of computation runs"),
		)
		if err != nil {
			initErrors = append(initErrors, "run_total: "+err.Error())
		}

		o.gateFailures, err = meter.Int64Counter("engine_gate_failure_total",
			metric.WithDescription("Number of failed quality gate findings"),
		)
		if err != nil {
			initErrors = append(initErrors, "gate_failures: "+err.Error())
		}

		if len(initErrors) > 0 {
			o.logger.Error("failed to initialize some engine metrics (observability degraded)",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}

// Run executes the full pipeline for one return.
//
// # Description
//
//	Validates the return, runs the federal pipeline, then every
//	requested jurisdiction module (in parallel, results placed back
//	in request order), collects the provenance store, verifies the
//	store is acyclic, and runs the quality gates when at least one
//	jurisdiction produced a result.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	ret - The return to compute. Must not be nil; not mutated.
//
// Outputs:
//
//	*Result - The completed run.
//	error - Validation failure, ErrUnknownJurisdiction under the
//	        error policy, or context cancellation.
func (o *Orchestrator) Run(ctx context.Context, ret *datatypes.Return) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if ret == nil {
		return nil, ErrNilReturn
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}

	o.initMetrics()

	ctx, span := tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(
			attribute.String("filing_status", string(ret.Filing)),
			attribute.Int("jurisdiction_count", len(ret.States)),
		),
	)
	defer span.End()

	start := time.Now()
	runID := uuid.NewString()

	o.logger.Info("computation run started",
		slog.String("run_id", runID),
		slog.String("filing_status", string(ret.Filing)),
		slog.Int("jurisdictions", len(ret.States)),
	)

	modules, configs, err := o.resolveModules(ret)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	fed := federal.Compute(ret)

	stateResults := make([]states.Result, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	for i := range modules {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stateResults[i] = modules[i].Compute(ret, fed, configs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &Result{
		RunID:   runID,
		Federal: fed,
		States:  stateResults,
		Values:  collectAll(o.logger, ret, fed, modules, stateResults),
		labels:  o.registry.labelMap(),
	}
	for _, mod := range modules {
		res.ExecutedModules = append(res.ExecutedModules, mod.Code())
	}

	// Integrity check: the collected store must be a DAG. A cycle is a
	// collector defect; the run still returns so the values stay
	// inspectable.
	if _, err := TopologicalSort(res.Values); err != nil {
		span.RecordError(err)
		o.logger.Error("provenance store failed acyclicity check",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}

	if len(res.States) > 0 {
		res.Gates = runGates(ret, res)
		if failed := res.Gates.FailedFindings(); len(failed) > 0 {
			if o.gateFailures != nil {
				o.gateFailures.Add(ctx, int64(len(failed)))
			}
			for _, f := range failed {
				o.logger.Warn("quality gate finding",
					slog.String("run_id", runID),
					slog.String("gate", f.Gate),
					slog.String("severity", string(f.Severity)),
					slog.String("message", f.Message),
				)
			}
		}
	}

	duration := time.Since(start)
	if o.runLatency != nil {
		o.runLatency.Record(ctx, duration.Seconds())
	}
	if o.runTotal != nil {
		o.runTotal.Add(ctx, 1)
	}

	o.logger.Info("computation run finished",
		slog.String("run_id", runID),
		slog.Int("values", res.Values.Len()),
		slog.Int("jurisdictions", len(res.States)),
		slog.Duration("duration", duration),
	)
	return res, nil
}

// resolveModules maps the requested jurisdiction configs to registered
// modules, preserving request order and applying the unknown policy.
func (o *Orchestrator) resolveModules(ret *datatypes.Return) ([]states.Module, []datatypes.StateConfig, error) {
	var modules []states.Module
	var configs []datatypes.StateConfig
	for _, cfg := range ret.States {
		mod, ok := o.registry.Lookup(cfg.Code)
		if !ok {
			switch o.unknownPolicy {
			case UnknownError:
				return nil, nil, fmt.Errorf("%w: %s", ErrUnknownJurisdiction, cfg.Code)
			case UnknownWarn:
				o.logger.Warn("skipping unknown jurisdiction",
					slog.String("jurisdiction", cfg.Code),
				)
			}
			continue
		}
		modules = append(modules, mod)
		configs = append(configs, cfg)
	}
	return modules, configs, nil
}
