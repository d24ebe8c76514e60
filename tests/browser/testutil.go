// Package browser provides shared test utilities for Playwright browser tests.
// All browser test files use BrowserTestEnv via SetupBrowserTestEnv(t).
//
// Fixture tests run the page objects against FixtureCatalog, a local copy of
// the catalog UI. The live scenario runs against the hosted catalog and is
// skipped unless credentials are configured.
package browser

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/pages"
)

const (
	// CODING AGENT RULE: Always use these timeout constants for fixture browser
	// tests. Never introduce a larger timeout value for the local fixture UI.
	browserMaxTimeoutMS = 5000
	browserMaxTimeout   = 5 * time.Second
)

var browserFixtureMu sync.Mutex
var browserSharedFixture *BrowserTestEnv

// BrowserTestEnv is the shared environment for browser tests: one fixture
// catalog server and one lazily launched Chromium.
type BrowserTestEnv struct {
	Server  *httptest.Server
	BaseURL string // always ends with "/"
	Catalog *FixtureCatalog

	pw        *playwright.Playwright
	browser   playwright.Browser
	browserMu sync.Mutex
}

// SetupBrowserTestEnv returns the shared environment with an empty catalog.
func SetupBrowserTestEnv(t *testing.T) *BrowserTestEnv {
	t.Helper()

	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	if browserSharedFixture == nil {
		catalog := NewFixtureCatalog()
		server := httptest.NewServer(catalog.Handler())
		browserSharedFixture = &BrowserTestEnv{
			Server:  server,
			BaseURL: server.URL + "/",
			Catalog: catalog,
		}
	}
	browserSharedFixture.Catalog.Reset()
	return browserSharedFixture
}

func cleanupSharedBrowserTestEnv() {
	browserFixtureMu.Lock()
	defer browserFixtureMu.Unlock()

	env := browserSharedFixture
	if env == nil {
		return
	}
	if env.browser != nil {
		_ = env.browser.Close()
	}
	if env.pw != nil {
		_ = env.pw.Stop()
	}
	env.Server.Close()
	browserSharedFixture = nil
}

// =============================================================================
// Browser lifecycle
// =============================================================================

// InitBrowser launches Chromium once. Tests skip when Playwright or the
// browser is not installed.
func (env *BrowserTestEnv) InitBrowser(t *testing.T) {
	t.Helper()
	env.launch(t, true)
}

func (env *BrowserTestEnv) launch(t *testing.T, headless bool) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	env.pw = pw
	env.browser = browser
}

// NewContext creates a browser context whose relative navigations resolve
// against the fixture catalog.
func (env *BrowserTestEnv) NewContext(t *testing.T) playwright.BrowserContext {
	t.Helper()
	return env.NewContextWithOptions(t, playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(env.BaseURL),
	}, browserMaxTimeoutMS)
}

// NewContextWithOptions creates a browser context with options and default
// timeouts of timeoutMS.
func (env *BrowserTestEnv) NewContextWithOptions(t *testing.T, options playwright.BrowserNewContextOptions, timeoutMS float64) playwright.BrowserContext {
	t.Helper()

	ctx, err := env.browser.NewContext(options)
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	ctx.SetDefaultTimeout(timeoutMS)
	ctx.SetDefaultNavigationTimeout(timeoutMS)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// NewPage opens a page in a fresh fixture context.
func (env *BrowserTestEnv) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	page, err := env.NewContext(t).NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	return page
}

// PageOptions are page object options pointed at the fixture catalog.
func (env *BrowserTestEnv) PageOptions() pages.Options {
	return pages.Options{
		Timeout:      browserMaxTimeout,
		TableTimeout: browserMaxTimeout,
		APIURL:       strings.TrimSuffix(env.BaseURL, "/"),
	}
}

// =============================================================================
// Navigation helpers
// =============================================================================

// Navigate goes to path relative to baseURL and waits for the DOM.
func Navigate(t *testing.T, page playwright.Page, baseURL, path string) {
	t.Helper()

	_, err := page.Goto(strings.TrimSuffix(baseURL, "/")+"/"+strings.TrimPrefix(path, "/"), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		t.Fatalf("Failed to navigate to %s: %v", path, err)
	}
}

// WaitForSelector waits for the first match of selector to be visible.
func WaitForSelector(t *testing.T, page playwright.Page, selector string) playwright.Locator {
	t.Helper()

	first := page.Locator(selector).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		currentURL := page.URL()
		title, _ := page.Title()
		content, _ := page.Content()
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		t.Logf("Current URL: %s", currentURL)
		t.Logf("Current title: %s", title)
		t.Logf("Content preview: %s", content)
		t.Fatalf("Failed to wait for selector %s: %v", selector, err)
	}
	return first
}
