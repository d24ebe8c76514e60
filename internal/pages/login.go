package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/config"
)

// Login drives the Konnect SSO sign-in: company SSO path, the Auth0 form, and
// the region picker.
type Login struct {
	base
	accounts config.Accounts
	creds    Credentials
}

// NewLogin returns the login flow for page.
func NewLogin(page playwright.Page, accounts config.Accounts, creds Credentials, opts Options) *Login {
	return &Login{base: newBase(page, opts), accounts: accounts, creds: creds}
}

// Open navigates to the sign-in page and waits for the network to settle.
func (p *Login) Open(ctx context.Context, signInURL string) error {
	return steps(ctx, "open sign-in", func() error {
		_, err := p.page.Goto(signInURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
		})
		return err
	})
}

// Konnect signs in through company SSO and selects the configured region. It
// returns once the region submission has been answered with 202.
func (p *Login) Konnect(ctx context.Context) error {
	submit := p.page.GetByTestId("organization-sso-login-submit-button")
	pathInput := p.page.GetByTestId("organization-login-path-input")

	err := steps(ctx, "konnect sso",
		p.click(p.page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Continue with SSO"})),
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "Company SSO"})),
		p.visible(p.page.GetByTestId("signin-page-form-layout").Locator("div").Filter(playwright.LocatorFilterOptions{
			HasText: "Company SSOEnter your",
		}).First()),
		func() error { return p.expect.Locator(submit).ToBeDisabled() },
		p.fill(pathInput, p.accounts.SSOLoginPath),
		func() error { return p.expect.Locator(submit).ToBeEnabled() },
		p.click(submit),
		p.waitForLoad(playwright.LoadStateNetworkidle),
	)
	if err != nil {
		return err
	}

	if err := p.auth0(ctx); err != nil {
		return err
	}
	return p.selectRegion(ctx)
}

func (p *Login) auth0(ctx context.Context) error {
	email := p.page.GetByRole("textbox", playwright.PageGetByRoleOptions{Name: "Email address"})
	password := p.page.GetByRole("textbox", playwright.PageGetByRoleOptions{Name: "Password"})
	cont := p.page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Continue", Exact: playwright.Bool(true)})

	return steps(ctx, "auth0 login",
		func() error {
			want := p.accounts.Auth0Instance + ".eu.auth0.com/u/login"
			if !strings.Contains(p.page.URL(), want) {
				return fmt.Errorf("expected auth0 login page %s, at %s", want, p.page.URL())
			}
			return nil
		},
		p.containsText(p.page.Locator("header"), "Log in to "+p.accounts.Auth0Instance+" to continue to Kong App."),
		p.visible(email),
		p.visible(password),
		p.visible(cont),
		p.fill(email, p.creds.Username),
		p.fill(password, p.creds.Password),
		p.click(cont),
	)
}

func (p *Login) selectRegion(ctx context.Context) error {
	input := p.page.GetByTestId("kong-ui-konnect-app-shell-region-select-input")
	submit := p.page.GetByTestId("kong-ui-konnect-app-shell-region-select-submit")

	return steps(ctx, "select region",
		p.click(input),
		p.click(p.page.GetByTestId("select-item-eu")),
		p.hasValue(input, p.accounts.KonnectRegion),
		func() error {
			_, err := p.page.ExpectResponse(func(r playwright.Response) bool {
				return r.Status() == 202
			}, func() error {
				return submit.Click()
			})
			return err
		},
	)
}

// GitHub fills the GitHub sign-in form. Two-factor prompts are not handled.
func GitHub(ctx context.Context, page playwright.Page, creds Credentials, opts Options) error {
	p := newBase(page, opts)
	return steps(ctx, "github login",
		p.fill(page.GetByRole("textbox", playwright.PageGetByRoleOptions{Name: "Username or email address"}), creds.Username),
		p.fill(page.GetByRole("textbox", playwright.PageGetByRoleOptions{Name: "Password"}), creds.Password),
		p.click(page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Sign in", Exact: playwright.Bool(true)})),
	)
}
