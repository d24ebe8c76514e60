// Package scrape turns rendered catalog UI into plain Go values: tables into
// header-keyed rows, and integration cards into locators found by label.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

const (
	// DefaultTableSelector matches the catalog list tables.
	DefaultTableSelector = "table.table"

	headerLabelSelector = ".table-header-label"
	nameMarker          = ".service-name"
	copyMarker          = ".copy-text"
	actionsHeader       = "actions"
)

// Row is one table body row keyed by header label.
type Row map[string]string

// ExtractTableHTML parses the outer HTML of a table and extracts its rows.
func ExtractTableHTML(html string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "parse table html", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errs.New(errs.InvalidArgument, "no table element in snapshot")
	}
	return ExtractTable(table), nil
}

// ExtractTable maps every body row of table to its header labels. Cells past
// the last header are dropped. The result is empty, never nil, when the table
// has no body rows.
func ExtractTable(table *goquery.Selection) []Row {
	headerRow, bodyRows := splitRows(table)
	headers := Headers(headerRow)

	rows := make([]Row, 0, bodyRows.Length())
	bodyRows.Each(func(_ int, tr *goquery.Selection) {
		row := make(Row, len(headers))
		tr.ChildrenFiltered("td").Each(func(i int, td *goquery.Selection) {
			if i >= len(headers) {
				return
			}
			row[headers[i]] = cellValue(td)
		})
		rows = append(rows, row)
	})
	return rows
}

// Headers returns the labels of a header row, left to right.
func Headers(headerRow *goquery.Selection) []string {
	cells := headerRow.ChildrenFiltered("th")
	headers := make([]string, 0, cells.Length())
	cells.Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, headerLabel(th))
	})
	return headers
}

func headerLabel(th *goquery.Selection) string {
	if label := th.Find(headerLabelSelector).First(); label.Length() > 0 {
		return strings.TrimSpace(label.Text())
	}
	text := strings.TrimSpace(th.Text())
	if text == actionsHeader {
		return actionsHeader
	}
	return text
}

// cellValue prefers the name marker, then the copy marker, then the cell
// text. All three are trimmed.
func cellValue(td *goquery.Selection) string {
	if name := td.Find(nameMarker).First(); name.Length() > 0 {
		return strings.TrimSpace(name.Text())
	}
	if copyText := td.Find(copyMarker).First(); copyText.Length() > 0 {
		return strings.TrimSpace(copyText.Text())
	}
	return strings.TrimSpace(td.Text())
}

// splitRows returns the header row and the body rows of table. Rows of nested
// tables are never included. Without a thead, a leading body row made only of
// th cells is the header row.
func splitRows(table *goquery.Selection) (*goquery.Selection, *goquery.Selection) {
	body := table.ChildrenFiltered("tbody").ChildrenFiltered("tr")
	if head := table.ChildrenFiltered("thead").ChildrenFiltered("tr").First(); head.Length() > 0 {
		return head, body
	}

	first := body.First()
	if first.ChildrenFiltered("th").Length() > 0 && first.ChildrenFiltered("td").Length() == 0 {
		return first, body.Slice(1, body.Length())
	}
	return first.Slice(0, 0), body
}

// FindRow returns the first row whose header column equals value.
func FindRow(rows []Row, header, value string) (Row, bool) {
	for _, row := range rows {
		if v, ok := row[header]; ok && v == value {
			return row, true
		}
	}
	return nil, false
}

// ReadTable waits up to timeout for the table matched by selector to become
// visible, snapshots its HTML, and extracts its rows. The page is not modified.
func ReadTable(ctx context.Context, page playwright.Page, selector string, timeout time.Duration) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if selector == "" {
		selector = DefaultTableSelector
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	// Playwright treats 0 as "no timeout".
	if timeout <= 0 {
		return nil, errs.Wrap(errs.FailedPrecondition, fmt.Sprintf("table %q: no time left to wait", selector), context.DeadlineExceeded)
	}

	table := page.Locator(selector).First()
	err := table.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, errs.Wrap(errs.FailedPrecondition, fmt.Sprintf("table %q not visible within %s", selector, timeout), err)
	}

	raw, err := table.Evaluate("el => el.outerHTML", nil)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "snapshot table html", err)
	}
	html, ok := raw.(string)
	if !ok {
		return nil, errs.New(errs.Internal, fmt.Sprintf("snapshot table html: unexpected %T", raw))
	}

	rows, err := ExtractTableHTML(html)
	if err != nil {
		return nil, err
	}
	obs.From(ctx).Debug("table_read", "pkg", "scrape", "selector", selector, "rows", len(rows))
	return rows, nil
}
