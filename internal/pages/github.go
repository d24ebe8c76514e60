package pages

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/config"
	"github.com/lucad87test-org/kong-test/internal/obs"
	"github.com/lucad87test-org/kong-test/internal/urlutil"
)

// GitHubApps is the organization's "Installed GitHub Apps" settings page.
type GitHubApps struct {
	base
	accounts config.Accounts
	creds    Credentials
}

// NewGitHubApps returns the installations page object for page.
func NewGitHubApps(page playwright.Page, accounts config.Accounts, creds Credentials, opts Options) *GitHubApps {
	return &GitHubApps{base: newBase(page, opts), accounts: accounts, creds: creds}
}

// Open navigates to the installations page, signing in when GitHub redirects
// to its login form.
func (p *GitHubApps) Open(ctx context.Context) error {
	err := steps(ctx, "open github installations",
		func() error {
			_, err := p.page.Goto(p.accounts.GitHubInstallationsURL())
			return err
		},
		p.waitForLoad(playwright.LoadStateNetworkidle),
	)
	if err != nil {
		return err
	}

	if !urlutil.HostIs(p.page.URL(), "github.com") || !urlutil.HasPathPrefix(p.page.URL(), "/login") {
		return nil
	}
	if err := steps(ctx, "github sign-in page",
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "Sign in to GitHub"})),
	); err != nil {
		return err
	}
	return GitHub(ctx, p.page, p.creds, p.opts)
}

// VerifyNoneInstalled checks the org settings show no installed apps.
func (p *GitHubApps) VerifyNoneInstalled(ctx context.Context) error {
	org := p.accounts.GitHubOrg
	return steps(ctx, "verify no installed apps",
		p.visible(p.page.GetByLabel(org+" settings").GetByRole("link", playwright.LocatorGetByRoleOptions{Name: org})),
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "Installed GitHub Apps", Exact: playwright.Bool(true)})),
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "No installed GitHub Apps"})),
	)
}

// Uninstall removes the catalog GitHub App from the organization. It reports
// false when the app was not installed.
func (p *GitHubApps) Uninstall(ctx context.Context) (bool, error) {
	if err := p.Open(ctx); err != nil {
		return false, err
	}

	app := p.accounts.GitHubAppName
	installed, err := p.page.GetByText(app).First().IsVisible()
	if err != nil {
		return false, err
	}
	if !installed {
		obs.From(ctx).Info("github_app_not_installed", "pkg", "pages", "app", app)
		return false, nil
	}

	release := AcceptDialogs(p.page)
	defer release()

	err = steps(ctx, "uninstall github app",
		p.visible(p.page.GetByText(app+" Configure")),
		p.click(p.page.GetByRole("link", playwright.PageGetByRoleOptions{Name: "Configure"})),
		p.click(p.page.Locator(".btn[value=Uninstall]")),
		func() error {
			_, err := p.page.Reload()
			return err
		},
		p.containsText(p.page.Locator("h2.blankslate-heading"), "No installed GitHub Apps"),
	)
	if err != nil {
		return false, err
	}
	obs.From(ctx).Info("github_app_uninstalled", "pkg", "pages", "app", app)
	return true, nil
}
