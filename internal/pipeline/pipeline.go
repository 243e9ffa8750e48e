// Package pipeline executes one route's ordered steps for one in-flight
// request. It owns the state machine
//
//	Initializing → Running(i) → Completed | Failed | Retrying
//
// including early-return detection, error wrapping that preserves the
// original error, the retry protocol, and the hand-off to the async task
// scheduler after a completed response.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/trailway/trailway/internal/api/shared"
	"github.com/trailway/trailway/internal/classify"
	"github.com/trailway/trailway/internal/feature"
)

// Scheduler is the narrow surface the pipeline needs from the async task
// scheduler.
type Scheduler interface {
	Schedule(route string, tasks []feature.AsyncTaskDescriptor, fc *feature.Context)
}

// Runner executes the pipeline of a single route. One Runner serves all
// requests of that route; per-request state lives in the Context created
// for each call.
type Runner struct {
	route     *feature.RouteDefinition
	scheduler Scheduler
	logger    *slog.Logger
	debug     bool
}

// NewRunner creates a Runner for the given route.
func NewRunner(route *feature.RouteDefinition, scheduler Scheduler, logger *slog.Logger, debug bool) *Runner {
	return &Runner{
		route:     route,
		scheduler: scheduler,
		logger: logger.With(
			"route_method", route.Method,
			"route_path", route.Path,
		),
		debug: debug,
	}
}

// ServeHTTP runs the full pipeline for one request.
func (rn *Runner) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	fc := feature.NewContext()
	ctx := r.Context()

	// Initializing: an initializer failure escalates immediately with no
	// step descriptor attached and without consulting the error hook.
	if rn.route.Initializer != nil {
		if err := rn.runInitializer(ctx, fc, r); err != nil {
			rn.logger.Error("context initializer failed", "error", err)
			rn.escalate(ww, r, feature.WrapStepError(err, nil, fc, classify.StatusCode(err)))
			return
		}
	}

	for {
		outcome := rn.runSteps(ctx, fc, ww, r)
		switch outcome.state {
		case stateCompleted:
			rn.complete(ww, r, fc)
			return

		case stateFailed:
			rn.escalate(ww, r, outcome.err)
			return

		case stateRetrying:
			if !rn.waitRetry(ctx, outcome.delay) {
				// Request abandoned during the delay; the timer is
				// released and no response is attempted.
				rn.logger.Warn("request cancelled during retry delay")
				return
			}
			// Loop back to Running(0) with the same Context.
		}
	}
}

// pipelineState is the terminal disposition of one pass over the steps.
type pipelineState int

const (
	stateCompleted pipelineState = iota
	stateFailed
	stateRetrying
)

type stepOutcome struct {
	state pipelineState
	err   *feature.Error
	delay time.Duration
}

// runSteps executes steps from index zero until early return, completion
// or failure. On failure the route's error hook decides the outcome.
func (rn *Runner) runSteps(ctx context.Context, fc *feature.Context, ww chimw.WrapResponseWriter, r *http.Request) stepOutcome {
	for i := range rn.route.Steps {
		step := &rn.route.Steps[i]

		err := rn.invokeStep(ctx, step, fc, ww, r)
		if err == nil {
			if responseWritten(ww) {
				// Early return: the step ended the response itself, so
				// all later steps and the error hook are skipped.
				rn.logger.Debug("early return",
					"step", step.Name,
					"step_order", step.Order,
					"status", ww.Status())
				return stepOutcome{state: stateCompleted}
			}
			continue
		}

		rn.logger.Warn("step failed",
			"step", step.Name,
			"step_order", step.Order,
			"attempt_retries", fc.Attempts(),
			"error", err)

		fe := feature.WrapStepError(err, step, fc, classify.StatusCode(err))
		return rn.handleFailure(ctx, fe, fc, ww, r)
	}
	return stepOutcome{state: stateCompleted}
}

// handleFailure implements the Failed state: consult the error hook (if
// any) with the original error and translate its verdict.
func (rn *Runner) handleFailure(ctx context.Context, fe *feature.Error, fc *feature.Context, ww chimw.WrapResponseWriter, r *http.Request) stepOutcome {
	hook := rn.route.ErrorHook
	if hook == nil {
		return stepOutcome{state: stateFailed, err: fe}
	}

	directive, hookErr := rn.invokeHook(ctx, hook, fe.Original, fc, ww, r)
	switch {
	case hookErr != nil:
		// Second-level failure: the hook itself failed. Logged apart
		// from the step failure and escalated like an unhandled one.
		rn.logger.Error("error hook failed",
			"step", fe.Step.Name,
			"original_error", fe.Original,
			"hook_error", hookErr)
		return stepOutcome{
			state: stateFailed,
			err:   feature.WrapStepError(hookErr, fe.Step, fc, classify.StatusCode(hookErr)),
		}

	case directive != nil:
		retries := fc.IncrementAttempts()
		if retries >= directive.MaxAttempts {
			rn.logger.Warn("retry attempts exhausted",
				"step", fe.Step.Name,
				"max_attempts", directive.MaxAttempts)
			return stepOutcome{state: stateFailed, err: fe}
		}
		rn.logger.Info("retrying pipeline",
			"step", fe.Step.Name,
			"delay", directive.Delay,
			"attempt", retries+1,
			"max_attempts", directive.MaxAttempts)
		return stepOutcome{state: stateRetrying, delay: directive.Delay}

	case responseWritten(ww):
		// The hook answered the request itself; async tasks still run.
		return stepOutcome{state: stateCompleted}

	default:
		return stepOutcome{state: stateFailed, err: fe}
	}
}

// complete finishes a successful pipeline: default the response when no
// step wrote one, then hand the async tasks to the scheduler exactly
// once, off the response path.
func (rn *Runner) complete(ww chimw.WrapResponseWriter, r *http.Request, fc *feature.Context) {
	if !responseWritten(ww) {
		// Every step ran without answering the request. Respond with
		// 204 rather than leaving the connection hanging.
		rn.logger.Warn("pipeline completed without writing a response")
		ww.WriteHeader(http.StatusNoContent)
	}
	rn.scheduler.Schedule(rn.route.Path, rn.route.AsyncTasks, fc)
}

// escalate sends the terminal failure to the response emitter, unless a
// response is already on the wire.
func (rn *Runner) escalate(ww chimw.WrapResponseWriter, r *http.Request, fe *feature.Error) {
	if responseWritten(ww) {
		rn.logger.Error("terminal pipeline failure after response was written", "error", fe)
		return
	}
	shared.WriteError(ww, r, fe, rn.debug)
}

// waitRetry blocks for the retry delay without holding a worker captive:
// it returns false when the request context is cancelled first, so an
// abandoned pipeline never leaks its timer.
func (rn *Runner) waitRetry(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// invokeStep calls a step function, converting a panic into an error so
// the failure flows through the same Failed state as a returned error.
func (rn *Runner) invokeStep(ctx context.Context, step *feature.StepDescriptor, fc *feature.Context, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, rec)
		}
	}()
	return step.Fn(ctx, fc, w, r)
}

// invokeHook calls the error hook with the same panic conversion.
func (rn *Runner) invokeHook(ctx context.Context, hook feature.ErrorHook, original error, fc *feature.Context, w http.ResponseWriter, r *http.Request) (directive *feature.RetryDirective, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			directive = nil
			err = fmt.Errorf("error hook panicked: %v", rec)
		}
	}()
	return hook(ctx, original, fc, w, r)
}

// runInitializer seeds the fresh Context, with panic conversion.
func (rn *Runner) runInitializer(ctx context.Context, fc *feature.Context, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("context initializer panicked: %v", rec)
		}
	}()
	return rn.route.Initializer(ctx, fc, r)
}

// responseWritten reports whether any part of a response has gone out.
func responseWritten(ww chimw.WrapResponseWriter) bool {
	return ww.Status() != 0 || ww.BytesWritten() > 0
}
