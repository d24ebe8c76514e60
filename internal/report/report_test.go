package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucad87test-org/kong-test/internal/artifacts"
	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/scenario"
)

func sampleRun(t *testing.T) *scenario.Run {
	t.Helper()
	r := scenario.New("service catalog")
	r.ServiceName = "lucad87test-service"
	r.ServiceID = "0f4c9e1a-3b7d-4c1e-9a55-2d6b1f0e8c11"
	r.IntegrationID = "github-7f3a"
	r.InstanceID = "inst-42"
	r.Leftovers = &cleanup.Result{
		Manifest: cleanup.Manifest{Services: []string{"svc-1", "svc-2"}, Instances: []string{"int-1"}},
		Outcomes: []cleanup.Outcome{
			{Kind: cleanup.KindService, ID: "svc-1"},
			{Kind: cleanup.KindService, ID: "svc-2", AlreadyGone: true, Status: 404},
			{Kind: cleanup.KindInstance, ID: "int-1", Status: 500, Err: errors.New("x"), Error: "failed to delete integration with ID int-1. Status: 500"},
		},
	}

	err := scenario.Execute(context.Background(), r, scenario.Phases{
		Body: func(ctx context.Context, r *scenario.Run) error {
			if err := r.Step(ctx, "create service", func(context.Context) error { return nil }); err != nil {
				return err
			}
			return r.Step(ctx, "verify service | table", func(context.Context) error {
				return errors.New(`<script>alert(1)</script> not visible`)
			})
		},
	})
	require.Error(t, err)
	require.Len(t, r.Steps(), 2)
	return r
}

func TestMarkdown_Sections(t *testing.T) {
	t.Parallel()
	r := sampleRun(t)
	md := string(Markdown(Input{
		Run:       r,
		Err:       errors.New("teardown: failed to delete service"),
		Artifacts: []artifacts.Ref{{Name: "trace.zip", Key: "runs/x/trace.zip", URL: "https://bucket.example/runs/x/trace.zip"}},
		Finished:  r.Started.Add(90 * time.Second),
	}))

	assert.Contains(t, md, "# service catalog")
	assert.Contains(t, md, "- Run: `"+r.ID+"`")
	assert.Contains(t, md, "- Status: **failed**")
	assert.Contains(t, md, "- Duration: 1m30s")
	assert.Contains(t, md, "| Service id | 0f4c9e1a-3b7d-4c1e-9a55-2d6b1f0e8c11 |")
	assert.Contains(t, md, "| body | create service |")
	assert.Contains(t, md, `| body | verify service \| table |`)
	assert.Contains(t, md, "Attempted 2 services and 1 GitHub integration instances.")
	assert.Contains(t, md, "| service | svc-2 | already gone |")
	assert.Contains(t, md, "| instance | int-1 | FAILED: failed to delete integration with ID int-1. Status: 500 |")
	assert.Contains(t, md, "## Error")
	assert.Contains(t, md, "- [trace.zip](https://bucket.example/runs/x/trace.zip)")
	assert.NotContains(t, md, "<script>")
}

func TestMarkdown_EmptyRun(t *testing.T) {
	t.Parallel()
	md := string(Markdown(Input{Run: scenario.New("empty")}))
	assert.Contains(t, md, "- Status: **passed**")
	assert.Contains(t, md, "No steps recorded.")
	assert.Contains(t, md, "Not run.")
	assert.Contains(t, md, "| Service id | - |")
	assert.NotContains(t, md, "## Artifacts")

	r := scenario.New("clean")
	r.Leftovers = &cleanup.Result{}
	assert.Contains(t, string(Markdown(Input{Run: r})), "Nothing to delete.")
}

func TestHTML_Sanitizes(t *testing.T) {
	t.Parallel()
	out := string(HTML([]byte("# Run\n\n<script>alert(1)</script>\n\n[x](javascript:alert(1))\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, strings.ToLower(out), "javascript:")
}
