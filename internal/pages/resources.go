package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/scrape"
)

// Resources is the catalog resources list and its details slideout.
type Resources struct {
	base

	pageHeader       playwright.Locator
	slideout         playwright.Locator
	slideoutTitle    playwright.Locator
	mapServiceButton playwright.Locator
	integrationCopy  playwright.Locator
	selectInput      playwright.Locator
	modalAction      playwright.Locator
}

// NewResources returns the resources page object for page.
func NewResources(page playwright.Page, opts Options) *Resources {
	return &Resources{
		base:             newBase(page, opts),
		pageHeader:       page.GetByTestId("page-header-title"),
		slideout:         page.GetByTestId("slideout-container"),
		slideoutTitle:    page.GetByTestId("slideout-title"),
		mapServiceButton: page.GetByTestId("map-service-action-button"),
		integrationCopy:  page.Locator(".slideout-content .integration-details .copy-text"),
		selectInput:      page.GetByTestId("select-input"),
		modalAction:      page.GetByTestId("modal-action-button"),
	}
}

// Navigate opens the resources list.
func (p *Resources) Navigate(ctx context.Context) error {
	return steps(ctx, "navigate to resources",
		p.gotoPath("service-catalog/resources/resources-list"),
		p.waitForLoad(playwright.LoadStateLoad),
		p.containsText(p.pageHeader, "Resources"),
	)
}

// VerifyResource checks the row for resource is an unmapped repository of
// the integration instance, ingested today.
func (p *Resources) VerifyResource(ctx context.Context, resource, integrationID string) error {
	row, err := p.row(ctx, "verify resource", resource)
	if err != nil {
		return err
	}
	return expectRow("verify resource", row, map[string]string{
		"Description":     "-",
		"Resource Type":   "Repository",
		"Instance":        integrationID,
		"Resource Status": "Unmapped",
	}, p.opts.Now(), "Ingested Date")
}

// OpenDetails opens the slideout for resource and returns the integration id
// shown in its details.
func (p *Resources) OpenDetails(ctx context.Context, resource string) (string, error) {
	cell := p.page.Locator(fmt.Sprintf("[data-testid=resource-name-cell][title=%s]", strconv.Quote(resource)))
	err := steps(ctx, "open resource details",
		p.click(cell),
		p.visible(p.slideout),
		p.containsText(p.slideoutTitle, resource),
		p.visible(p.mapServiceButton),
		p.visible(p.integrationCopy),
	)
	if err != nil {
		return "", err
	}
	text, err := p.integrationCopy.TextContent()
	if err != nil {
		return "", fmt.Errorf("open resource details: read integration id: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// MapToService maps the open resource to serviceName and waits for the
// Service Hub to answer the mapping with 201.
func (p *Resources) MapToService(ctx context.Context, integrationID, serviceID, serviceName string) error {
	modal := p.page.GetByTestId("resource-action-modal").Locator("div").Filter(playwright.LocatorFilterOptions{
		HasText: "Map Resource",
	}).Nth(2)
	option := p.page.Locator(fmt.Sprintf(".modal-content .select-item-container button[value=%s]", strconv.Quote(serviceID)))
	mapURL := strings.TrimSuffix(p.opts.APIURL, "/") + "/servicehub/v1/resources/" + integrationID + "/services"

	return steps(ctx, "map resource to service",
		p.click(p.mapServiceButton),
		p.visible(modal),
		p.click(p.selectInput),
		p.click(option),
		p.hasValue(p.selectInput, serviceName),
		func() error {
			_, err := p.page.ExpectResponse(func(r playwright.Response) bool {
				return r.URL() == mapURL && r.Status() == 201
			}, p.click(p.modalAction))
			return err
		},
	)
}

// VerifyMapped checks the row for resource now reports one mapped service.
func (p *Resources) VerifyMapped(ctx context.Context, resource string) error {
	row, err := p.row(ctx, "verify resource mapped", resource)
	if err != nil {
		return err
	}
	return expectRow("verify resource mapped", row, map[string]string{"Resource Status": "1 Service"}, p.opts.Now())
}

func (p *Resources) row(ctx context.Context, step, resource string) (scrape.Row, error) {
	rows, err := scrape.ReadTable(ctx, p.page, scrape.DefaultTableSelector, p.opts.TableTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	row, ok := scrape.FindRow(rows, "Resource Name", resource)
	if !ok {
		return nil, fmt.Errorf("%s: no row for %q among %d rows", step, resource, len(rows))
	}
	return row, nil
}
