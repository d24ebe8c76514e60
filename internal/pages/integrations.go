package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/scrape"
	"github.com/lucad87test-org/kong-test/internal/urlutil"
)

var editInstanceTitle = regexp.MustCompile(`Edit instance (.*)`)

// Integrations is the integrations gallery and the GitHub instance views.
type Integrations struct {
	base

	pageHeaderTitle        playwright.Locator
	addInstanceButton      playwright.Locator
	authorizeButton        playwright.Locator
	displayNameInput       playwright.Locator
	nameInput              playwright.Locator
	saveInstanceButton     playwright.Locator
	integrationStatusBadge playwright.Locator
}

// NewIntegrations returns the integrations page object for page.
func NewIntegrations(page playwright.Page, opts Options) *Integrations {
	return &Integrations{
		base:                   newBase(page, opts),
		pageHeaderTitle:        page.GetByTestId("page-header-title"),
		addInstanceButton:      page.GetByTestId("add-integration-instance-button"),
		authorizeButton:        page.GetByTestId("authorize-button"),
		displayNameInput:       page.GetByTestId("integration-display-name-input"),
		nameInput:              page.GetByTestId("integration-name-input"),
		saveInstanceButton:     page.GetByTestId("save-integration-instance-button"),
		integrationStatusBadge: page.Locator(".integration-instance-about-card .badge-content .badge-content-wrapper span.badge-text"),
	}
}

// Navigate opens the integrations gallery.
func (p *Integrations) Navigate(ctx context.Context) error {
	return steps(ctx, "navigate to integrations",
		p.gotoPath("service-catalog/integrations"),
		p.waitForLoad(playwright.LoadStateLoad),
	)
}

// SelectGitHub finds the GitHub card, checks it is not installed yet and
// opens it.
func (p *Integrations) SelectGitHub(ctx context.Context) (playwright.Locator, error) {
	card, err := scrape.FindCard(ctx, p.page, "GitHub")
	if err != nil {
		return nil, fmt.Errorf("select github integration: %w", err)
	}
	err = steps(ctx, "select github integration",
		p.visible(card),
		p.containsText(card, "GitHub"),
		p.containsText(card, "Not Installed"),
		p.click(card),
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// VerifyGitHubPage checks the instances page of the GitHub integration.
// appURL is the app base URL.
func (p *Integrations) VerifyGitHubPage(ctx context.Context, appURL string) error {
	return steps(ctx, "verify github integration page",
		p.containsText(p.pageHeaderTitle, "GitHub"),
		p.visible(p.addInstanceButton),
		func() error {
			want := urlutil.BuildAbsolute(appURL, "service-catalog/integrations/github/instances")
			if got := p.page.URL(); got != want {
				return fmt.Errorf("url = %s, want %s", got, want)
			}
			return nil
		},
	)
}

// CreateGitHubInstance starts a new instance and returns the generated
// instance name from the "Edit instance <name>" title.
func (p *Integrations) CreateGitHubInstance(ctx context.Context) (string, error) {
	err := steps(ctx, "create github instance",
		p.click(p.addInstanceButton),
		func() error { return p.expect.Locator(p.pageHeaderTitle).ToHaveText(editInstanceTitle) },
		p.visible(p.authorizeButton),
		p.visible(p.displayNameInput),
		p.visible(p.nameInput),
	)
	if err != nil {
		return "", err
	}

	title, err := p.pageHeaderTitle.TextContent()
	if err != nil {
		return "", fmt.Errorf("create github instance: read title: %w", err)
	}
	m := editInstanceTitle.FindStringSubmatch(title)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return "", fmt.Errorf("create github instance: unexpected title %q", title)
	}
	integrationID := strings.TrimSpace(m[1])

	err = steps(ctx, "verify github instance names",
		p.hasValue(p.displayNameInput, integrationID),
		p.hasValue(p.nameInput, strings.ToLower(integrationID)),
	)
	if err != nil {
		return "", err
	}
	return integrationID, nil
}

// AuthorizeGitHub installs and authorizes the GitHub App for organization.
func (p *Integrations) AuthorizeGitHub(ctx context.Context, organization string) error {
	installButton := p.page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Install & Authorize"})
	return steps(ctx, "authorize github",
		p.click(p.authorizeButton),
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "Install Konnect Service"})),
		p.click(p.page.GetByRole("link", playwright.PageGetByRoleOptions{Name: "@" + organization})),
		p.visible(p.page.GetByRole("heading", playwright.PageGetByRoleOptions{Name: "Install & Authorize Konnect"})),
		p.visible(installButton),
		p.click(installButton),
	)
}

// SaveInstance saves the instance, waits for the Authorized badge and returns
// the instance id from the URL.
func (p *Integrations) SaveInstance(ctx context.Context) (string, error) {
	err := steps(ctx, "save github instance",
		p.click(p.saveInstanceButton),
		func() error { return p.expect.Locator(p.integrationStatusBadge).ToHaveText("Authorized") },
	)
	if err != nil {
		return "", err
	}
	id := urlutil.LastPathSegment(p.page.URL())
	if id == "" {
		return "", fmt.Errorf("save github instance: no instance id in %s", p.page.URL())
	}
	return id, nil
}

// VerifyRepository checks the ingested repository row of the instance.
func (p *Integrations) VerifyRepository(ctx context.Context, repository, integrationID string) error {
	rows, err := scrape.ReadTable(ctx, p.page, scrape.DefaultTableSelector, p.opts.TableTimeout)
	if err != nil {
		return fmt.Errorf("verify github repository: %w", err)
	}
	row, ok := scrape.FindRow(rows, "GitHub Repository", repository)
	if !ok {
		return fmt.Errorf("verify github repository: no row for %q among %d rows", repository, len(rows))
	}
	return expectRow("verify github repository", row, map[string]string{
		"Description":     "-",
		"Resource Type":   "Repository",
		"Instance":        integrationID,
		"Resource Status": "Unmapped",
	}, p.opts.Now(), "Ingested Date")
}
