// Package scenario threads one explicit run context through the setup, body
// and teardown phases of a catalog scenario.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

// Phase names.
const (
	PhaseSetup    = "setup"
	PhaseBody     = "body"
	PhaseTeardown = "teardown"
)

// StepResult records one named step.
type StepResult struct {
	Phase    string
	Name     string
	Started  time.Time
	Duration time.Duration
	Err      string
}

// OK reports whether the step succeeded.
func (s StepResult) OK() bool { return s.Err == "" }

// Run is the state of one scenario execution. Ids are filled in by the body
// as the UI reveals them and read back by teardown.
type Run struct {
	ID      string
	Name    string
	Started time.Time

	ServiceName   string
	ServiceID     string
	InstanceID    string // Service Hub id of the GitHub integration instance
	IntegrationID string // generated instance name shown in the UI

	Leftovers *cleanup.Result

	phase string
	steps []StepResult
	now   func() time.Time
}

// New returns a run named name with a fresh run id.
func New(name string) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now().UTC(),
		now:     time.Now,
	}
}

// Context attaches the run's correlation fields to ctx.
func (r *Run) Context(ctx context.Context) context.Context {
	return obs.WithCorrelation(ctx, obs.Correlation{RunID: r.ID, Scenario: r.Name})
}

// Targets returns the resources teardown should delete.
func (r *Run) Targets() cleanup.Targets {
	return cleanup.Targets{ServiceID: r.ServiceID, InstanceID: r.InstanceID}
}

// Step runs fn as a named step of the current phase and records its outcome.
func (r *Run) Step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = obs.WithStep(r.Context(ctx), name)
	start := r.clock()
	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}

	res := StepResult{Phase: r.phase, Name: name, Started: start, Duration: r.clock().Sub(start)}
	l := obs.From(ctx).With("pkg", "scenario", "phase", r.phase)
	if err != nil {
		res.Err = err.Error()
		l.Error("step_failed", "dur_ms", res.Duration.Milliseconds(), "error", res.Err)
		err = fmt.Errorf("%s: %w", name, err)
	} else {
		l.Info("step_done", "dur_ms", res.Duration.Milliseconds())
	}
	r.steps = append(r.steps, res)
	return err
}

// Steps returns the recorded steps in execution order.
func (r *Run) Steps() []StepResult {
	out := make([]StepResult, len(r.steps))
	copy(out, r.steps)
	return out
}

// Failed reports whether any recorded step failed.
func (r *Run) Failed() bool {
	for _, s := range r.steps {
		if !s.OK() {
			return true
		}
	}
	return false
}

func (r *Run) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// Phases are the three parts of a scenario. Any of them may be nil.
type Phases struct {
	Setup    func(ctx context.Context, r *Run) error
	Body     func(ctx context.Context, r *Run) error
	Teardown func(ctx context.Context, r *Run) error
}

// Execute runs setup, then body when setup succeeded, then teardown
// regardless. Teardown gets a context that is not canceled with ctx so a
// timed-out body still cleans up. The errors of all phases are joined.
func Execute(ctx context.Context, r *Run, p Phases) error {
	ctx = r.Context(ctx)
	l := obs.From(ctx).With("pkg", "scenario")
	l.Info("scenario_started")

	var errList []error
	if err := r.runPhase(ctx, PhaseSetup, p.Setup); err != nil {
		errList = append(errList, err)
	} else if err := r.runPhase(ctx, PhaseBody, p.Body); err != nil {
		errList = append(errList, err)
	}
	if err := r.runPhase(context.WithoutCancel(ctx), PhaseTeardown, p.Teardown); err != nil {
		errList = append(errList, err)
	}

	err := errors.Join(errList...)
	if err != nil {
		l.Error("scenario_failed", "error", err.Error())
	} else {
		l.Info("scenario_passed", "dur_ms", r.clock().Sub(r.Started).Milliseconds())
	}
	return err
}

func (r *Run) runPhase(ctx context.Context, name string, fn func(context.Context, *Run) error) error {
	if fn == nil {
		return nil
	}
	r.phase = name
	if err := fn(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
