package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Adapter is the uniform call into one external capability. Implementations
// must honor ctx cancellation for the caller's sake but are not required to
// support interruption of work already in flight; ordinary failures come
// back as errors, not panics.
type Adapter interface {
	Invoke(ctx context.Context, turn *Turn) (string, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, turn *Turn) (string, error)

func (f AdapterFunc) Invoke(ctx context.Context, turn *Turn) (string, error) { return f(ctx, turn) }

// AdapterSet resolves capability ids to adapters. Adapters are injected at
// construction time; the dispatcher holds no process-wide state.
type AdapterSet interface {
	Adapter(id CapabilityID) (Adapter, bool)
}

// DefaultCapabilityTimeout bounds one capability invocation.
const DefaultCapabilityTimeout = 8 * time.Second

// Dispatcher executes an execution plan against the adapter layer. Parallel
// plans use a settle-all join: every capability runs to success, failure, or
// timeout independently, and one capability's outcome never blocks or
// cancels its siblings.
type Dispatcher struct {
	adapters AdapterSet
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher with the given per-capability timeout;
// non-positive values fall back to DefaultCapabilityTimeout.
func NewDispatcher(adapters AdapterSet, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultCapabilityTimeout
	}
	return &Dispatcher{adapters: adapters, timeout: timeout}
}

// Dispatch runs the plan and returns exactly one result per planned
// capability, in plan order regardless of completion order. It returns
// ErrAllCapabilitiesFailed when no result settled ok; the partial results
// are still returned alongside the error.
func (d *Dispatcher) Dispatch(ctx context.Context, plan ExecutionPlan, turn *Turn) ([]CapabilityResult, error) {
	results := make([]CapabilityResult, len(plan.Capabilities))

	if plan.Mode == ModeSingle {
		results[0] = d.invokeOne(ctx, plan.Capabilities[0], turn)
	} else {
		done := make(chan struct{}, len(plan.Capabilities))
		for i, id := range plan.Capabilities {
			go func(slot int, id CapabilityID) {
				results[slot] = d.invokeOne(ctx, id, turn)
				done <- struct{}{}
			}(i, id)
		}
		for range plan.Capabilities {
			<-done
		}
	}

	anyOK := false
	for _, r := range results {
		if r.Status == StatusOK {
			anyOK = true
			break
		}
	}
	if !anyOK {
		return results, ErrAllCapabilitiesFailed
	}
	return results, nil
}

// invokeOne runs a single capability under its own timeout. The adapter call
// runs in a detached goroutine: on timeout the slot settles as timed_out and
// the eventual late result, if any, is discarded rather than interrupted.
func (d *Dispatcher) invokeOne(ctx context.Context, id CapabilityID, turn *Turn) CapabilityResult {
	adapter, ok := d.adapters.Adapter(id)
	if !ok {
		return CapabilityResult{Capability: id, Status: StatusFailed}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		payload string
		err     error
	}
	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("capability %s panicked: %v", id, r)}
			}
		}()
		payload, err := adapter.Invoke(callCtx, turn)
		ch <- outcome{payload: payload, err: err}
	}()

	select {
	case out := <-ch:
		latency := time.Since(start)
		if out.err != nil {
			slog.Warn("capability failed", "capability", id, "error", out.err, "latency", latency)
			return CapabilityResult{Capability: id, Status: StatusFailed, Latency: latency}
		}
		return CapabilityResult{Capability: id, Status: StatusOK, Payload: out.payload, Latency: latency}
	case <-callCtx.Done():
		latency := time.Since(start)
		slog.Warn("capability timed out", "capability", id, "timeout", d.timeout)
		return CapabilityResult{Capability: id, Status: StatusTimedOut, Latency: latency}
	}
}
