package browser

import (
	"context"

	"github.com/lucad87test-org/kong-test/internal/config"
	"github.com/lucad87test-org/kong-test/internal/pages"
	"github.com/lucad87test-org/kong-test/internal/scenario"
)

// catalogFlow is the body of the catalog scenario, shared by the fixture and
// live tests. It records every id it learns on the run so teardown can
// delete what was created even when a later step fails.
type catalogFlow struct {
	Services     *pages.Services
	Integrations *pages.Integrations
	Resources    *pages.Resources
	AppURL       string
	Accounts     config.Accounts
}

func newCatalogFlow(services *pages.Services, appURL string, accounts config.Accounts, opts pages.Options) *catalogFlow {
	page := services.Page()
	return &catalogFlow{
		Services:     services,
		Integrations: pages.NewIntegrations(page, opts),
		Resources:    pages.NewResources(page, opts),
		AppURL:       appURL,
		Accounts:     accounts,
	}
}

func (f *catalogFlow) Body(ctx context.Context, r *scenario.Run) error {
	if r.ServiceName == "" {
		r.ServiceName = f.Accounts.KonnectServiceName
	}

	err := r.Step(ctx, "create service", func(ctx context.Context) error {
		id, err := f.Services.Create(ctx, r.ServiceName)
		r.ServiceID = id
		return err
	})
	if err != nil {
		return err
	}
	if err := r.Step(ctx, "verify service id", func(ctx context.Context) error {
		return f.Services.VerifyID(ctx, r.ServiceID)
	}); err != nil {
		return err
	}
	if err := r.Step(ctx, "verify service in table", func(ctx context.Context) error {
		if err := f.Services.Navigate(ctx); err != nil {
			return err
		}
		return f.Services.VerifyInTable(ctx, r.ServiceName, r.ServiceID)
	}); err != nil {
		return err
	}

	if err := r.Step(ctx, "install github integration", func(ctx context.Context) error {
		return f.installGitHub(ctx, r)
	}); err != nil {
		return err
	}
	if err := r.Step(ctx, "verify github repository", func(ctx context.Context) error {
		return f.Integrations.VerifyRepository(ctx, f.Accounts.GitHubRepoFullName(), r.IntegrationID)
	}); err != nil {
		return err
	}

	if err := r.Step(ctx, "verify resource", func(ctx context.Context) error {
		if err := f.Resources.Navigate(ctx); err != nil {
			return err
		}
		return f.Resources.VerifyResource(ctx, f.Accounts.GitHubRepo, r.IntegrationID)
	}); err != nil {
		return err
	}
	if err := r.Step(ctx, "map resource", func(ctx context.Context) error {
		resourceID, err := f.Resources.OpenDetails(ctx, f.Accounts.GitHubRepo)
		if err != nil {
			return err
		}
		return f.Resources.MapToService(ctx, resourceID, r.ServiceID, r.ServiceName)
	}); err != nil {
		return err
	}
	return r.Step(ctx, "verify resource mapped", func(ctx context.Context) error {
		if err := f.Resources.Navigate(ctx); err != nil {
			return err
		}
		return f.Resources.VerifyMapped(ctx, f.Accounts.GitHubRepo)
	})
}

func (f *catalogFlow) installGitHub(ctx context.Context, r *scenario.Run) error {
	if err := f.Integrations.Navigate(ctx); err != nil {
		return err
	}
	if _, err := f.Integrations.SelectGitHub(ctx); err != nil {
		return err
	}
	if err := f.Integrations.VerifyGitHubPage(ctx, f.AppURL); err != nil {
		return err
	}
	integrationID, err := f.Integrations.CreateGitHubInstance(ctx)
	if err != nil {
		return err
	}
	r.IntegrationID = integrationID
	if err := f.Integrations.AuthorizeGitHub(ctx, f.Accounts.GitHubOrg); err != nil {
		return err
	}
	instanceID, err := f.Integrations.SaveInstance(ctx)
	r.InstanceID = instanceID
	return err
}
