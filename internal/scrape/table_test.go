package scrape

import (
	"fmt"
	"html"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lucad87test-org/kong-test/internal/errs"
)

// servicesTable mirrors the markup of the catalog services list.
const servicesTable = `
<table class="table">
  <thead>
    <tr>
      <th><span class="table-header-label">Service</span></th>
      <th><span class="table-header-label">ID</span></th>
      <th><span class="table-header-label">Resources</span></th>
      <th><span class="table-header-label">Created at</span></th>
      <th>actions</th>
    </tr>
  </thead>
  <tbody>
    <tr>
      <td><div class="name-cell"><span class="service-name">lucad87test-service</span><span class="badge">new</span></div></td>
      <td><div class="copy-wrapper"><span class="copy-text">3f2a9c1e...</span><button>copy</button></div></td>
      <td> 0 </td>
      <td>Oct 19, 2026, 9:14 AM</td>
      <td><button>...</button></td>
    </tr>
    <tr>
      <td><span class="service-name">billing</span></td>
      <td><span class="copy-text">9b1d77aa...</span></td>
      <td>3</td>
      <td>Oct 18, 2026, 4:02 PM</td>
      <td></td>
    </tr>
  </tbody>
</table>`

func TestExtractTableHTML_ServicesTable(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(servicesTable)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		"Service":    "lucad87test-service",
		"ID":         "3f2a9c1e...",
		"Resources":  "0",
		"Created at": "Oct 19, 2026, 9:14 AM",
		"actions":    "...",
	}, rows[0])
	assert.Equal(t, "billing", rows[1]["Service"])

	row, ok := FindRow(rows, "Service", "billing")
	require.True(t, ok)
	assert.Equal(t, "3", row["Resources"])

	_, ok = FindRow(rows, "Service", "missing")
	assert.False(t, ok)
}

func TestExtractTableHTML_NameMarkerBeatsCopyMarker(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <thead><tr><th><span class="table-header-label">Name</span></th></tr></thead>
	  <tbody><tr><td>
	    <span class="copy-text">svc-copy-id</span>
	    <span class="service-name">svc-display-name</span>
	  </td></tr></tbody>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "svc-display-name", rows[0]["Name"])
}

func TestExtractTableHTML_MarkerTextIsTrimmed(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <thead><tr>
	    <th><span class="table-header-label">Service</span></th>
	    <th><span class="table-header-label">ID</span></th>
	  </tr></thead>
	  <tbody><tr>
	    <td><span class="service-name">
	      lucad87test-service
	    </span></td>
	    <td><span class="copy-text">  3f2a9c1e...  </span></td>
	  </tr></tbody>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "lucad87test-service", rows[0]["Service"])
	assert.Equal(t, "3f2a9c1e...", rows[0]["ID"])
}

func TestExtractTableHTML_NoBodyRows(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table><thead><tr><th>Service</th></tr></thead><tbody></tbody></table>`)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExtractTableHTML_ActionsHeaderWithoutLabel(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <thead><tr><th><span class="table-header-label">Instance</span></th><th> actions </th></tr></thead>
	  <tbody><tr><td>github-1</td><td><button>Edit</button></td></tr></tbody>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"Instance": "github-1", "actions": "Edit"}, rows[0])
}

func TestExtractTableHTML_ExtraCellsDropped(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <thead><tr><th>A</th></tr></thead>
	  <tbody><tr><td>1</td><td>2</td><td>3</td></tr><tr></tr></tbody>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"A": "1"}, rows[0])
	assert.Equal(t, Row{}, rows[1])
}

func TestExtractTableHTML_HeaderRowWithoutThead(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <tr><th>Resource Name</th><th>Resource Status</th></tr>
	  <tr><td>kong-test</td><td>Unmapped</td></tr>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"Resource Name": "kong-test", "Resource Status": "Unmapped"}, rows[0])
}

func TestExtractTableHTML_NestedTableRowsIgnored(t *testing.T) {
	t.Parallel()
	rows, err := ExtractTableHTML(`<table>
	  <thead><tr><th>Outer</th></tr></thead>
	  <tbody><tr><td><table><tbody><tr><td>inner</td></tr></tbody></table></td></tr></tbody>
	</table>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "inner", rows[0]["Outer"])
}

func TestExtractTableHTML_NoTable(t *testing.T) {
	t.Parallel()
	_, err := ExtractTableHTML(`<div>loading</div>`)
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

// ===== Properties =====

var cellText = rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ._/-]{0,15}`)

func renderTable(headers []string, labeled []bool, rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<table class="table"><thead><tr>`)
	for i, h := range headers {
		if labeled[i] {
			fmt.Fprintf(&b, `<th><div><span class="table-header-label"> %s </span><i class="sort"></i></div></th>`, html.EscapeString(h))
		} else {
			fmt.Fprintf(&b, `<th> %s </th>`, html.EscapeString(h))
		}
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range rows {
		b.WriteString(`<tr>`)
		for _, cell := range row {
			fmt.Fprintf(&b, `<td> %s </td>`, html.EscapeString(cell))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func testExtractTable_ShapeFollowsHeadersAndRows(t *rapid.T) {
	headers := rapid.SliceOfNDistinct(cellText, 1, 6, func(s string) string { return strings.TrimSpace(s) }).Draw(t, "headers")
	labeled := make([]bool, len(headers))
	for i := range headers {
		labeled[i] = rapid.Bool().Draw(t, fmt.Sprintf("labeled-%d", i))
	}
	nRows := rapid.IntRange(0, 8).Draw(t, "rows")
	rows := make([][]string, nRows)
	for i := range rows {
		rows[i] = rapid.SliceOfN(cellText, 0, len(headers)+3).Draw(t, fmt.Sprintf("row-%d", i))
	}

	got, err := ExtractTableHTML(renderTable(headers, labeled, rows))
	if err != nil {
		t.Fatalf("ExtractTableHTML: %v", err)
	}
	if len(got) != nRows {
		t.Fatalf("row count: got %d want %d", len(got), nRows)
	}

	known := map[string]bool{}
	for _, h := range headers {
		known[strings.TrimSpace(h)] = true
	}
	for i, row := range got {
		if len(row) > len(headers) {
			t.Fatalf("row %d has %d keys for %d headers", i, len(row), len(headers))
		}
		for k := range row {
			if !known[k] {
				t.Fatalf("row %d has unknown key %q", i, k)
			}
		}
		for j, cell := range rows[i] {
			if j >= len(headers) {
				break
			}
			if want := strings.TrimSpace(cell); row[strings.TrimSpace(headers[j])] != want {
				t.Fatalf("row %d col %d: got %q want %q", i, j, row[headers[j]], want)
			}
		}
	}
}

func TestExtractTable_ShapeFollowsHeadersAndRows(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testExtractTable_ShapeFollowsHeadersAndRows)
}

func testExtractTable_Deterministic(t *rapid.T) {
	headers := rapid.SliceOfNDistinct(cellText, 1, 4, func(s string) string { return strings.TrimSpace(s) }).Draw(t, "headers")
	labeled := make([]bool, len(headers))
	rows := [][]string{rapid.SliceOfN(cellText, len(headers), len(headers)).Draw(t, "row")}
	snapshot := renderTable(headers, labeled, rows)

	first, err := ExtractTableHTML(snapshot)
	if err != nil {
		t.Fatalf("ExtractTableHTML: %v", err)
	}
	second, err := ExtractTableHTML(snapshot)
	if err != nil {
		t.Fatalf("ExtractTableHTML: %v", err)
	}
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("non-deterministic extraction: %v vs %v", first, second)
	}
}

func TestExtractTable_Deterministic(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testExtractTable_Deterministic)
}
