// Package pages holds page objects for the Konnect Service Catalog UI and the
// GitHub pages the integration flow passes through.
//
// Every method takes a context for cancellation and correlation. Playwright
// itself is not context-aware, so the context is checked between steps and the
// per-call Playwright timeouts bound each wait.
package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/obs"
)

// Options tune waits and clocks shared by every page object.
type Options struct {
	// Timeout bounds each assertion. Zero means 30s.
	Timeout time.Duration
	// TableTimeout bounds waiting for a catalog table to render. Zero means 30s.
	TableTimeout time.Duration
	// APIURL is the regional Service Hub API origin the UI talks to.
	APIURL string
	// Now returns the reference time for date columns. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.TableTimeout <= 0 {
		o.TableTimeout = 30 * time.Second
	}
	if o.APIURL == "" {
		o.APIURL = "https://eu.api.konghq.com"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Credentials are the username and password shared by the SSO form and the
// GitHub sign-in page.
type Credentials struct {
	Username string
	Password string
}

type base struct {
	page   playwright.Page
	expect playwright.PlaywrightAssertions
	opts   Options
}

func newBase(page playwright.Page, opts Options) base {
	opts = opts.withDefaults()
	return base{
		page:   page,
		expect: playwright.NewPlaywrightAssertions(float64(opts.Timeout.Milliseconds())),
		opts:   opts,
	}
}

// Page returns the underlying Playwright page.
func (b base) Page() playwright.Page {
	return b.page
}

func (b base) visible(l playwright.Locator) func() error {
	return func() error { return b.expect.Locator(l).ToBeVisible() }
}

func (b base) containsText(l playwright.Locator, text string) func() error {
	return func() error { return b.expect.Locator(l).ToContainText(text) }
}

func (b base) hasValue(l playwright.Locator, value string) func() error {
	return func() error { return b.expect.Locator(l).ToHaveValue(value) }
}

func (b base) click(l playwright.Locator) func() error {
	return func() error { return l.Click() }
}

func (b base) fill(l playwright.Locator, value string) func() error {
	return func() error { return l.Fill(value) }
}

func (b base) waitForLoad(state *playwright.LoadState) func() error {
	return func() error {
		return b.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: state})
	}
}

func (b base) gotoPath(path string) func() error {
	return func() error {
		_, err := b.page.Goto(path)
		return err
	}
}

// steps runs fns in order and stops at the first error, naming the step and
// the index of the failing action.
func steps(ctx context.Context, step string, fns ...func() error) error {
	ctx = obs.WithStep(ctx, step)
	for i, fn := range fns {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
		if err := fn(); err != nil {
			obs.From(ctx).Warn("page_step_failed", "pkg", "pages", "action", i, "error", err.Error())
			return fmt.Errorf("%s (action %d): %w", step, i, err)
		}
	}
	obs.From(ctx).Debug("page_step_done", "pkg", "pages")
	return nil
}
