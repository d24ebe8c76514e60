// Browser tests for the live adapters of the table extractor and card finder,
// run against the fixture catalog.
//
// Prerequisites:
// - Install Playwright browsers: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
// - Run tests with: go test -v -run TestReadTable ./tests/browser/...
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/scrape"
)

// =============================================================================
// Test: ReadTable on the services list
// =============================================================================

func TestReadTable_ServicesList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	idA := env.Catalog.AddService("billing")
	idB := env.Catalog.AddService("checkout")

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog")

	rows, err := scrape.ReadTable(context.Background(), page, scrape.DefaultTableSelector, browserMaxTimeout)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "billing", rows[0]["Service"])
	assert.Equal(t, idA[:8]+"...", rows[0]["ID"])
	assert.Equal(t, "0", rows[0]["Resources"])
	assert.Equal(t, "...", rows[0]["actions"])
	assert.Equal(t, "checkout", rows[1]["Service"])
	assert.Equal(t, idB[:8]+"...", rows[1]["ID"])
	assert.Len(t, rows[1], 6)

	row, ok := scrape.FindRow(rows, "Service", "checkout")
	require.True(t, ok)
	assert.Equal(t, rows[1], row)
}

func TestReadTable_EmptyBody(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog")

	rows, err := scrape.ReadTable(context.Background(), page, "", browserMaxTimeout)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReadTable_NeverVisible(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog/integrations")

	_, err := scrape.ReadTable(context.Background(), page, scrape.DefaultTableSelector, 500*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err))
}

// =============================================================================
// Test: FindCard with lazily rendered cards
// =============================================================================

func TestFindCard_AppearsAfterScrolling(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog/integrations")
	WaitForSelector(t, page, ".integration-card")

	cards := scrape.NewPlaywrightCards(page)
	scrolls, err := scrape.NewCardFinder(cards).Find(context.Background(), "GitHub")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scrolls, 3)

	visible, err := cards.Card("GitHub").IsVisible()
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestFindCard_PresentImmediately(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog/integrations")
	WaitForSelector(t, page, ".integration-card")

	scrolls, err := scrape.NewCardFinder(scrape.NewPlaywrightCards(page)).Find(context.Background(), "Slack")
	require.NoError(t, err)
	assert.Equal(t, 0, scrolls)
}

func TestFindCard_NotFoundListsCandidates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	env := SetupBrowserTestEnv(t)
	env.InitBrowser(t)

	page := env.NewPage(t)
	Navigate(t, page, env.BaseURL, "service-catalog/integrations")
	WaitForSelector(t, page, ".integration-card")

	finder := scrape.NewCardFinder(scrape.NewPlaywrightCards(page))
	finder.Interval = 50 * time.Millisecond
	_, err := finder.Find(context.Background(), "Jira")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
	assert.Contains(t, err.Error(), "Slack")
	assert.Contains(t, err.Error(), "GitHub")
}
