package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

// Card finder defaults.
const (
	DefaultMaxAttempts = 10
	DefaultScrollStep  = 500
	DefaultInterval    = 300 * time.Millisecond
)

// CardSurface is a scrollable list of labeled cards.
type CardSurface interface {
	// Count returns how many cards with exactly this label are rendered.
	Count(ctx context.Context, label string) (int, error)
	// ScrollBy scrolls the surface down by dy pixels.
	ScrollBy(ctx context.Context, dy int) error
	// Labels returns the labels of every rendered card.
	Labels(ctx context.Context) ([]string, error)
	// ScrollIntoView brings the first card with this label into the viewport.
	ScrollIntoView(ctx context.Context, label string) error
}

// CardFinder looks for a card on a lazily rendered surface, scrolling down a
// bounded number of times.
type CardFinder struct {
	Surface     CardSurface
	MaxAttempts int
	ScrollStep  int
	Interval    time.Duration

	sleep func(context.Context, time.Duration) error
}

// NewCardFinder returns a finder with the default bounds.
func NewCardFinder(surface CardSurface) *CardFinder {
	return &CardFinder{
		Surface:     surface,
		MaxAttempts: DefaultMaxAttempts,
		ScrollStep:  DefaultScrollStep,
		Interval:    DefaultInterval,
	}
}

// Find returns the number of scroll iterations it took to render the card with
// label, after scrolling it into view. A card present from the start takes
// zero. When the card never shows up, the error has code not_found and lists
// the labels that are rendered.
func (f *CardFinder) Find(ctx context.Context, label string) (int, error) {
	l := obs.From(ctx).With("pkg", "scrape")

	count, err := f.Surface.Count(ctx, label)
	if err != nil {
		return 0, fmt.Errorf("count cards %q: %w", label, err)
	}

	scrolls := 0
	for count == 0 && scrolls < f.maxAttempts() {
		if err := f.Surface.ScrollBy(ctx, f.scrollStep()); err != nil {
			return scrolls, fmt.Errorf("scroll: %w", err)
		}
		if err := f.wait(ctx); err != nil {
			return scrolls, err
		}
		scrolls++

		count, err = f.Surface.Count(ctx, label)
		if err != nil {
			return scrolls, fmt.Errorf("count cards %q: %w", label, err)
		}
	}

	if count == 0 {
		labels, err := f.Surface.Labels(ctx)
		if err != nil {
			l.Warn("card_labels_unavailable", "error", err.Error())
		}
		l.Info("card_not_found", "label", label, "scrolls", scrolls, "available", labels)
		return scrolls, errs.New(errs.NotFound, fmt.Sprintf(
			"integration card %q not found after scrolling (available: %s)", label, strings.Join(labels, ", "),
		))
	}

	if err := f.Surface.ScrollIntoView(ctx, label); err != nil {
		return scrolls, fmt.Errorf("scroll card %q into view: %w", label, err)
	}
	l.Debug("card_found", "label", label, "scrolls", scrolls)
	return scrolls, nil
}

func (f *CardFinder) maxAttempts() int {
	if f.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return f.MaxAttempts
}

func (f *CardFinder) scrollStep() int {
	if f.ScrollStep <= 0 {
		return DefaultScrollStep
	}
	return f.ScrollStep
}

func (f *CardFinder) wait(ctx context.Context) error {
	if f.sleep != nil {
		return f.sleep(ctx, f.Interval)
	}
	timer := time.NewTimer(f.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PlaywrightCards is the integration card grid of a page.
type PlaywrightCards struct {
	page playwright.Page
}

// NewPlaywrightCards returns the card surface of page.
func NewPlaywrightCards(page playwright.Page) *PlaywrightCards {
	return &PlaywrightCards{page: page}
}

// CardSelector matches integration cards whose name is exactly label.
func CardSelector(label string) string {
	return `.k-card.integration-card:has(.integration-name:text-is(` + strconv.Quote(label) + `))`
}

// Card returns the locator of the cards labeled label.
func (c *PlaywrightCards) Card(label string) playwright.Locator {
	return c.page.Locator(CardSelector(label))
}

func (c *PlaywrightCards) Count(_ context.Context, label string) (int, error) {
	return c.Card(label).Count()
}

func (c *PlaywrightCards) ScrollBy(_ context.Context, dy int) error {
	_, err := c.page.Evaluate("dy => window.scrollBy(0, dy)", dy)
	return err
}

func (c *PlaywrightCards) Labels(_ context.Context) ([]string, error) {
	texts, err := c.page.Locator(".integration-name").AllTextContents()
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(texts))
	for _, t := range texts {
		labels = append(labels, strings.TrimSpace(t))
	}
	return labels, nil
}

func (c *PlaywrightCards) ScrollIntoView(_ context.Context, label string) error {
	return c.Card(label).First().ScrollIntoViewIfNeeded()
}

// FindCard finds the integration card labeled label on page and returns its
// locator, scrolled into view.
func FindCard(ctx context.Context, page playwright.Page, label string) (playwright.Locator, error) {
	cards := NewPlaywrightCards(page)
	if _, err := NewCardFinder(cards).Find(ctx, label); err != nil {
		return nil, err
	}
	return cards.Card(label).First(), nil
}
