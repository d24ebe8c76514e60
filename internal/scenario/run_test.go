package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

func fixedClock(r *Run) {
	t := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		t = t.Add(250 * time.Millisecond)
		return t
	}
}

func TestNew_AssignsRunID(t *testing.T) {
	t.Parallel()
	a, b := New("catalog"), New("catalog")
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	corr := obs.CorrelationFromContext(a.Context(context.Background()))
	assert.Equal(t, a.ID, corr.RunID)
	assert.Equal(t, "catalog", corr.Scenario)
}

func TestStep_RecordsOutcomeAndCorrelation(t *testing.T) {
	t.Parallel()
	r := New("catalog")
	fixedClock(r)

	var seen obs.Correlation
	err := r.Step(context.Background(), "create service", func(ctx context.Context) error {
		seen = obs.CorrelationFromContext(ctx)
		r.ServiceID = "svc-1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, obs.Correlation{RunID: r.ID, Scenario: "catalog", Step: "create service"}, seen)

	boom := errors.New("locator timeout")
	err = r.Step(context.Background(), "verify service id", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "verify service id: locator timeout", err.Error())

	steps := r.Steps()
	require.Len(t, steps, 2)
	assert.True(t, steps[0].OK())
	assert.Equal(t, 250*time.Millisecond, steps[0].Duration)
	assert.Equal(t, "locator timeout", steps[1].Err)
	assert.True(t, r.Failed())
	assert.Equal(t, cleanup.Targets{ServiceID: "svc-1"}, r.Targets())
}

func TestStep_CanceledContextFails(t *testing.T) {
	t.Parallel()
	r := New("catalog")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Step(ctx, "navigate", func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, r.Failed())
}

func TestExecute_TeardownAlwaysRuns(t *testing.T) {
	t.Parallel()
	bodyErr := errors.New("body broke")
	teardownErr := errors.New("delete failed")

	var order []string
	var teardownCtxErr error
	r := New("catalog")
	ctx, cancel := context.WithCancel(context.Background())

	err := Execute(ctx, r, Phases{
		Setup: func(ctx context.Context, r *Run) error {
			order = append(order, "setup")
			return nil
		},
		Body: func(ctx context.Context, r *Run) error {
			order = append(order, "body")
			r.ServiceID = "svc-1"
			r.InstanceID = "inst-1"
			cancel()
			return bodyErr
		},
		Teardown: func(ctx context.Context, r *Run) error {
			order = append(order, "teardown")
			teardownCtxErr = ctx.Err()
			assert.Equal(t, cleanup.Targets{ServiceID: "svc-1", InstanceID: "inst-1"}, r.Targets())
			return teardownErr
		},
	})

	assert.Equal(t, []string{"setup", "body", "teardown"}, order)
	require.ErrorIs(t, err, bodyErr)
	require.ErrorIs(t, err, teardownErr)
	assert.Contains(t, err.Error(), "body: body broke")
	assert.Contains(t, err.Error(), "teardown: delete failed")
	assert.NoError(t, teardownCtxErr)
}

func TestExecute_SetupFailureSkipsBody(t *testing.T) {
	t.Parallel()
	setupErr := errors.New("uninstall failed")
	bodyRan, teardownRan := false, false

	err := Execute(context.Background(), New("catalog"), Phases{
		Setup:    func(context.Context, *Run) error { return setupErr },
		Body:     func(context.Context, *Run) error { bodyRan = true; return nil },
		Teardown: func(context.Context, *Run) error { teardownRan = true; return nil },
	})
	require.ErrorIs(t, err, setupErr)
	assert.False(t, bodyRan)
	assert.True(t, teardownRan)
}

func TestExecute_NilPhases(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Execute(context.Background(), New("empty"), Phases{}))
}
