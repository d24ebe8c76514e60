package pages

import (
	"fmt"
	"slices"
	"time"

	"github.com/lucad87test-org/kong-test/internal/scrape"
)

// expectRow compares fixed columns and checks that dateColumns fall on now's
// calendar day. Columns are checked in sorted order so failures are stable.
func expectRow(step string, row scrape.Row, want map[string]string, now time.Time, dateColumns ...string) error {
	cols := make([]string, 0, len(want))
	for col := range want {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	for _, col := range cols {
		got, ok := row[col]
		if !ok {
			return fmt.Errorf("%s: no %s column", step, col)
		}
		if got != want[col] {
			return fmt.Errorf("%s: %s = %q, want %q", step, col, got, want[col])
		}
	}
	for _, col := range dateColumns {
		if err := requireSameDay(col, row[col], now); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}
