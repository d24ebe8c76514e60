package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/lucad87test-org/kong-test/internal/pages"
)

// =============================================================================
// Test: scoped dialog handler
// =============================================================================

func TestAcceptDialogs_ScopedToRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "dialog")
	expect := playwright.NewPlaywrightAssertions(browserMaxTimeoutMS)
	result := page.Locator("#result")

	release := pages.AcceptDialogs(page)
	if err := page.Locator("#uninstall").Click(); err != nil {
		t.Fatalf("Failed to click uninstall: %v", err)
	}
	require.NoError(t, expect.Locator(result).ToHaveText("accepted"))

	release()
	release()

	// Without listeners Playwright dismisses dialogs.
	if err := page.Locator("#uninstall").Click(); err != nil {
		t.Fatalf("Failed to click uninstall: %v", err)
	}
	require.NoError(t, expect.Locator(result).ToHaveText("dismissed"))
}
