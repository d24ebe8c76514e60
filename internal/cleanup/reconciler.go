// Package cleanup removes catalog entities left behind by earlier runs and tears
// down the entities a scenario created.
package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/konnect"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

// Resource kinds.
const (
	KindService  = "service"
	KindInstance = "instance"
)

// API is the part of the Service Hub client the reconciler needs.
type API interface {
	ListServices(ctx context.Context) ([]konnect.Service, error)
	ListIntegrationInstances(ctx context.Context) ([]konnect.IntegrationInstance, error)
	Deleter
}

// Deleter deletes single entities.
type Deleter interface {
	DeleteService(ctx context.Context, id string) error
	DeleteIntegrationInstance(ctx context.Context, id string) error
}

// Manifest lists the ids a run attempted to delete, whether or not each
// deletion succeeded.
type Manifest struct {
	Services  []string `json:"services"`
	Instances []string `json:"instances"`
}

// Empty reports whether nothing was attempted.
func (m Manifest) Empty() bool {
	return len(m.Services) == 0 && len(m.Instances) == 0
}

// Outcome is the result of one deletion attempt.
type Outcome struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	// AlreadyGone is set when the API answered 404 and that counted as deleted.
	AlreadyGone bool   `json:"already_gone,omitempty"`
	Status      int    `json:"status,omitempty"`
	Err         error  `json:"-"`
	Error       string `json:"error,omitempty"`
}

// OK reports whether the entity is gone.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result is a manifest plus the outcome of every attempt, in attempt order.
type Result struct {
	Manifest
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes that did not delete their entity.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// TreatNotFoundAsDeleted controls whether a 404 on delete counts as success.
// Enabled by default.
func TreatNotFoundAsDeleted(enabled bool) Option {
	return func(r *Reconciler) {
		r.notFoundIsDeleted = enabled
	}
}

// Reconciler deletes leftover services and GitHub integration instances.
type Reconciler struct {
	api               API
	notFoundIsDeleted bool
}

// NewReconciler creates a Reconciler over api.
func NewReconciler(api API, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:               api,
		notFoundIsDeleted: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DeleteLeftovers deletes every service and every GitHub integration instance
// and returns the ids it attempted. A failed list call is returned as a
// fetch_failed error and nothing is deleted; a failed delete is logged and the
// loop continues.
func (r *Reconciler) DeleteLeftovers(ctx context.Context) (Manifest, error) {
	res, err := r.Run(ctx)
	if res == nil {
		return Manifest{}, err
	}
	return res.Manifest, err
}

// Run is DeleteLeftovers with per-id outcomes. The result is non-nil whenever
// both list calls succeeded, even if the context is canceled mid-batch.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	l := obs.From(ctx).With("pkg", "cleanup")

	services, err := r.api.ListServices(ctx)
	if err != nil {
		return nil, ensureCode(err, errs.FetchFailed, "failed to fetch services")
	}
	instances, err := r.api.ListIntegrationInstances(ctx)
	if err != nil {
		return nil, ensureCode(err, errs.FetchFailed, "failed to fetch integration instances")
	}

	res := &Result{
		Manifest: Manifest{
			Services:  make([]string, 0, len(services)),
			Instances: make([]string, 0, len(instances)),
		},
	}
	for _, svc := range services {
		res.Services = append(res.Services, svc.ID)
	}
	for _, inst := range instances {
		if inst.IsGitHub() {
			res.Instances = append(res.Instances, inst.ID)
		}
	}

	l.Info("leftovers_found", "services", len(res.Services), "instances", len(res.Instances), "instances_total", len(instances))

	for _, id := range res.Services {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Outcomes = append(res.Outcomes, r.attempt(ctx, KindService, id, r.api.DeleteService))
	}
	for _, id := range res.Instances {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Outcomes = append(res.Outcomes, r.attempt(ctx, KindInstance, id, r.api.DeleteIntegrationInstance))
	}

	l.Info("leftovers_deleted", "attempted", len(res.Outcomes), "failed", len(res.Failed()))
	return res, nil
}

func (r *Reconciler) attempt(ctx context.Context, kind, id string, del func(context.Context, string) error) Outcome {
	l := obs.From(ctx).With("pkg", "cleanup")
	out := Outcome{Kind: kind, ID: id}

	err := del(ctx, id)
	out.Status = statusOf(err)
	if err == nil {
		l.Debug("leftover_deleted", "kind", kind, "id", id)
		return out
	}
	if r.notFoundIsDeleted && errs.Is(err, errs.NotFound) {
		out.AlreadyGone = true
		l.Info("leftover_already_gone", "kind", kind, "id", id)
		return out
	}

	out.Err = err
	out.Error = err.Error()
	l.Error("leftover_delete_failed", "kind", kind, "id", id, "status", out.Status, "error", err.Error())
	return out
}

// Targets are the entities one scenario created.
type Targets struct {
	ServiceID  string
	InstanceID string
}

// Teardown deletes a scenario's service and integration instance. Empty ids are
// skipped. Both deletions are attempted; their errors are joined.
func Teardown(ctx context.Context, api Deleter, t Targets) error {
	l := obs.From(ctx).With("pkg", "cleanup")

	var errList []error
	if t.ServiceID != "" {
		if err := api.DeleteService(ctx, t.ServiceID); err != nil {
			errList = append(errList, ensureCode(err, errs.DeleteFailed, "failed to delete service with ID "+t.ServiceID))
		} else {
			l.Info("teardown_deleted", "kind", KindService, "id", t.ServiceID)
		}
	} else {
		l.Warn("teardown_skipped", "kind", KindService, "reason", "no id recorded")
	}

	if t.InstanceID != "" {
		if err := api.DeleteIntegrationInstance(ctx, t.InstanceID); err != nil {
			errList = append(errList, ensureCode(err, errs.DeleteFailed, "failed to delete integration with ID "+t.InstanceID))
		} else {
			l.Info("teardown_deleted", "kind", KindInstance, "id", t.InstanceID)
		}
	} else {
		l.Warn("teardown_skipped", "kind", KindInstance, "reason", "no id recorded")
	}

	if len(errList) == 0 {
		return nil
	}
	return fmt.Errorf("teardown: %w", errors.Join(errList...))
}

func statusOf(err error) int {
	if err == nil {
		return 204
	}
	var statusErr *konnect.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

// ensureCode keeps err's code when it has one and wraps it otherwise.
func ensureCode(err error, code errs.Code, message string) error {
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	return errs.Wrap(code, message, err)
}
