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

var (
	truncatedIDPattern   = regexp.MustCompile(`[a-f0-9]+\.\.\.`)
	notificationsPattern = regexp.MustCompile(`https://global\.api\.konghq\.com/v1/notifications/inbox`)
	activeClassPattern   = regexp.MustCompile(`active`)
)

// Services is the Service Catalog landing page and the service create and
// detail views.
type Services struct {
	base

	// CatalogReady reports the response that marks the catalog as loaded.
	// Defaults to a 200 from the notifications inbox.
	CatalogReady func(playwright.Response) bool

	kongKonnectLink     playwright.Locator
	dropdownTrigger     playwright.Locator
	sidebarServicesItem playwright.Locator
	organizationName    playwright.Locator
	moreRegionsLabel    playwright.Locator

	entityCreateButton    playwright.Locator
	serviceFullscreenForm playwright.Locator
	serviceDisplayName    playwright.Locator
	serviceName           playwright.Locator
	serviceSubmitButton   playwright.Locator

	pageHeaderBreadcrumbs playwright.Locator
	serviceActionsMenu    playwright.Locator
	aboutSectionContent   playwright.Locator
	overviewLabel         playwright.Locator
	mapResourcesButton    playwright.Locator
	copyTooltipWrapper    playwright.Locator
}

// NewServices returns the services page object for page.
func NewServices(page playwright.Page, opts Options) *Services {
	return &Services{
		base: newBase(page, opts),
		CatalogReady: func(r playwright.Response) bool {
			return notificationsPattern.MatchString(r.URL()) && r.Status() == 200
		},

		kongKonnectLink:     page.GetByRole("link", playwright.PageGetByRoleOptions{Name: "Kong Konnect"}),
		dropdownTrigger:     page.GetByTestId("dropdown-trigger-button"),
		sidebarServicesItem: page.GetByTestId("sidebar-item-services"),
		organizationName:    page.GetByTestId("organization-name"),
		moreRegionsLabel:    page.GetByLabel("More regions"),

		entityCreateButton:    page.GetByTestId("entity-create-button"),
		serviceFullscreenForm: page.GetByTestId("service-fullscreen-form"),
		serviceDisplayName:    page.GetByTestId("service-display-name"),
		serviceName:           page.GetByTestId("service-name"),
		serviceSubmitButton:   page.GetByTestId("service-submit-button"),

		pageHeaderBreadcrumbs: page.GetByTestId("page-header-breadcrumbs"),
		serviceActionsMenu:    page.GetByTestId("service-actions-dropdown"),
		aboutSectionContent:   page.GetByTestId("about-section-content"),
		overviewLabel:         page.GetByLabel("Overview"),
		mapResourcesButton:    page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Map Resources"}),
		copyTooltipWrapper:    page.GetByTestId("copy-tooltip-wrapper"),
	}
}

// Navigate opens the catalog and waits for the response that marks it loaded.
func (p *Services) Navigate(ctx context.Context) error {
	return steps(ctx, "navigate to service catalog", func() error {
		_, err := p.page.ExpectResponse(p.CatalogReady, p.gotoPath("service-catalog"))
		return err
	})
}

// VerifyNavigation checks the app shell shows the organization and region.
func (p *Services) VerifyNavigation(ctx context.Context, organization, region string) error {
	return steps(ctx, "verify navigation",
		p.visible(p.kongKonnectLink),
		p.visible(p.dropdownTrigger),
		func() error { return p.expect.Locator(p.sidebarServicesItem).ToHaveClass(activeClassPattern) },
		p.containsText(p.organizationName, organization),
		p.containsText(p.moreRegionsLabel, region),
	)
}

// Create creates a service through the full-screen form and returns its id,
// read from the detail page URL.
func (p *Services) Create(ctx context.Context, name string) (string, error) {
	err := steps(ctx, "create service",
		p.visible(p.entityCreateButton),
		p.click(p.entityCreateButton),
		p.containsText(p.serviceFullscreenForm, "Create Service"),
		p.click(p.serviceDisplayName),
		p.fill(p.serviceDisplayName, name),
		p.hasValue(p.serviceName, name),
		p.click(p.serviceSubmitButton),
		p.visible(p.pageHeaderBreadcrumbs.GetByRole("link", playwright.LocatorGetByRoleOptions{Name: "Service Catalog"})),
		p.visible(p.serviceActionsMenu),
		p.visible(p.aboutSectionContent.GetByText(name)),
		p.containsText(p.overviewLabel, "No Resources Yet"),
		p.visible(p.mapResourcesButton),
	)
	if err != nil {
		return "", err
	}

	id := urlutil.ServiceIDFromURL(p.page.URL())
	if id == "" {
		return "", fmt.Errorf("create service: no service id in %s", p.page.URL())
	}
	return id, nil
}

// VerifyID hovers the copy control and checks the popover shows id.
func (p *Services) VerifyID(ctx context.Context, id string) error {
	return steps(ctx, "verify service id",
		func() error { return p.copyTooltipWrapper.Hover() },
		p.visible(p.page.Locator(".popover-content").Locator("div").Filter(playwright.LocatorFilterOptions{HasText: id})),
	)
}

// Table reads the services table.
func (p *Services) Table(ctx context.Context) ([]scrape.Row, error) {
	return scrape.ReadTable(ctx, p.page, scrape.DefaultTableSelector, p.opts.TableTimeout)
}

// VerifyInTable checks the row for name: truncated id prefix, no resources,
// created and updated today.
func (p *Services) VerifyInTable(ctx context.Context, name, id string) error {
	rows, err := p.Table(ctx)
	if err != nil {
		return fmt.Errorf("verify service in table: %w", err)
	}
	row, ok := scrape.FindRow(rows, "Service", name)
	if !ok {
		return fmt.Errorf("verify service in table: no row for %q among %d rows", name, len(rows))
	}

	if !truncatedIDPattern.MatchString(row["ID"]) {
		return fmt.Errorf("verify service in table: ID %q is not a truncated id", row["ID"])
	}
	if prefix := id[:min(8, len(id))]; !strings.Contains(row["ID"], prefix) {
		return fmt.Errorf("verify service in table: ID %q does not contain %q", row["ID"], prefix)
	}
	return expectRow("verify service in table", row, map[string]string{"Resources": "0"},
		p.opts.Now(), "Created at", "Updated at")
}
