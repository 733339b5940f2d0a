package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default wall-clock budgets for one pipeline run and for the forced
// fallback retry. The overall deadline protects against parallel plans whose
// slowest capability honors its own timeout yet still exceeds what the
// caller will tolerate.
const (
	DefaultOverallDeadline  = 15 * time.Second
	DefaultFallbackDeadline = 5 * time.Second
)

// Engine is the degradation supervisor wrapping the whole
// classify-plan-dispatch-aggregate chain. HandleTurn always returns either a
// reply (possibly degraded) or ErrTotalFailure, never anything in between.
type Engine struct {
	classifier *Classifier
	router     *Router
	dispatcher *Dispatcher
	aggregator *Aggregator
	telemetry  Telemetry

	deadline         time.Duration
	fallbackDeadline time.Duration
}

// Options tune the engine's wall-clock budgets.
type Options struct {
	OverallDeadline  time.Duration
	FallbackDeadline time.Duration
}

// New wires the pipeline stages under one supervisor. A nil telemetry sink
// is replaced by NopTelemetry.
func New(classifier *Classifier, router *Router, dispatcher *Dispatcher, aggregator *Aggregator, telemetry Telemetry, opts Options) *Engine {
	if telemetry == nil {
		telemetry = NopTelemetry{}
	}
	if opts.OverallDeadline <= 0 {
		opts.OverallDeadline = DefaultOverallDeadline
	}
	if opts.FallbackDeadline <= 0 {
		opts.FallbackDeadline = DefaultFallbackDeadline
	}
	return &Engine{
		classifier:       classifier,
		router:           router,
		dispatcher:       dispatcher,
		aggregator:       aggregator,
		telemetry:        telemetry,
		deadline:         opts.OverallDeadline,
		fallbackDeadline: opts.FallbackDeadline,
	}
}

// runOutcome carries one pipeline attempt's artifacts for telemetry.
type runOutcome struct {
	reply   AggregatedReply
	plan    ExecutionPlan
	results []CapabilityResult
	policy  AggregationPolicy
	err     error
}

// HandleTurn runs the full pipeline for one turn. On any stage failure,
// dispatcher total failure, or deadline overrun it re-runs once with a
// forced single general-conversation plan under the shorter fallback
// deadline; only when that retry also fails does the caller see an error,
// and then always ErrTotalFailure.
func (e *Engine) HandleTurn(ctx context.Context, turn *Turn) (AggregatedReply, error) {
	out := e.runPipeline(ctx, turn, e.deadline, nil)
	if out.err == nil {
		e.telemetry.Record(RunRecord{
			ConversationID: turn.ConversationID,
			Plan:           out.plan,
			Results:        out.results,
			Policy:         out.policy,
			State:          StateNormal,
		})
		return out.reply, nil
	}

	cause := out.err.Error()
	slog.Warn("pipeline degraded, retrying with forced fallback plan",
		"conversation_id", turn.ConversationID, "cause", cause)

	forced := ExecutionPlan{
		Mode:         ModeSingle,
		Capabilities: []CapabilityID{CapabilityGeneralConversation},
		Rationale:    "forced fallback after pipeline failure",
	}
	retry := e.runPipeline(ctx, turn, e.fallbackDeadline, &forced)
	if retry.err == nil {
		retry.reply.Degraded = true
		e.telemetry.Record(RunRecord{
			ConversationID: turn.ConversationID,
			Plan:           retry.plan,
			Results:        retry.results,
			Policy:         retry.policy,
			State:          StateDegraded,
			Cause:          cause,
		})
		return retry.reply, nil
	}

	e.telemetry.Record(RunRecord{
		ConversationID: turn.ConversationID,
		Plan:           forced,
		Results:        retry.results,
		Policy:         retry.policy,
		State:          StateFailed,
		Cause:          cause,
	})
	slog.Error("fallback plan failed, surfacing terminal error",
		"conversation_id", turn.ConversationID, "cause", cause)
	return AggregatedReply{}, ErrTotalFailure
}

// runPipeline executes one attempt under a wall-clock deadline. A non-nil
// forced plan skips classification and routing. Stage panics are recovered
// and reported as errors so the supervisor can degrade instead of crashing
// the caller.
func (e *Engine) runPipeline(ctx context.Context, turn *Turn, deadline time.Duration, forced *ExecutionPlan) runOutcome {
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ch := make(chan runOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- runOutcome{err: fmt.Errorf("pipeline stage panicked: %v", r)}
			}
		}()

		var plan ExecutionPlan
		if forced != nil {
			plan = *forced
		} else {
			plan = e.router.Plan(e.classifier.Classify(turn))
		}

		results, err := e.dispatcher.Dispatch(runCtx, plan, turn)
		if err != nil {
			ch <- runOutcome{plan: plan, results: results, err: err}
			return
		}

		reply, policy := e.aggregator.Aggregate(runCtx, plan, turn, results)
		ch <- runOutcome{reply: reply, plan: plan, results: results, policy: policy}
	}()

	select {
	case out := <-ch:
		return out
	case <-runCtx.Done():
		// The in-flight attempt is detached, not interrupted; its eventual
		// outcome is discarded.
		return runOutcome{err: ErrDeadlineExceeded}
	}
}

// IsTotalFailure reports whether err is the engine's terminal error.
func IsTotalFailure(err error) bool { return errors.Is(err, ErrTotalFailure) }
