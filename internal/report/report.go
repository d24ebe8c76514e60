// Package report renders the Markdown summary of a scenario run and its
// sanitized HTML form.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lucad87test-org/kong-test/internal/artifacts"
	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/scenario"
)

// Input is everything a report covers. Err and Artifacts may be empty.
type Input struct {
	Run *scenario.Run
	// Err is the error the run returned.
	Err       error
	Artifacts []artifacts.Ref
	Finished  time.Time
}

// Markdown renders in as a Markdown document.
func Markdown(in Input) []byte {
	r := in.Run
	var b strings.Builder

	status := "passed"
	if r.Failed() || in.Err != nil {
		status = "failed"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(r.Name))
	fmt.Fprintf(&b, "- Run: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- Status: **%s**\n", status)
	fmt.Fprintf(&b, "- Started: %s\n", r.Started.UTC().Format(time.RFC3339))
	if !in.Finished.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", in.Finished.Sub(r.Started).Round(time.Millisecond))
	}
	b.WriteString("\n## Entities\n\n")
	b.WriteString("| Entity | Value |\n|---|---|\n")
	for _, kv := range [][2]string{
		{"Service name", r.ServiceName},
		{"Service id", r.ServiceID},
		{"Integration", r.IntegrationID},
		{"Integration instance id", r.InstanceID},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", kv[0], cell(kv[1]))
	}

	b.WriteString("\n## Steps\n\n")
	steps := r.Steps()
	if len(steps) == 0 {
		b.WriteString("No steps recorded.\n")
	} else {
		b.WriteString("| Phase | Step | Result | Duration |\n|---|---|---|---|\n")
		for _, s := range steps {
			result := "ok"
			if !s.OK() {
				result = "FAILED: " + s.Err
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				cell(s.Phase), cell(s.Name), cell(result), s.Duration.Round(time.Millisecond))
		}
	}

	b.WriteString("\n## Leftover cleanup\n\n")
	writeLeftovers(&b, r.Leftovers)

	if in.Err != nil {
		fmt.Fprintf(&b, "\n## Error\n\n```\n%s\n```\n", strings.ReplaceAll(in.Err.Error(), "```", "'''"))
	}

	if len(in.Artifacts) > 0 {
		b.WriteString("\n## Artifacts\n\n")
		for _, a := range in.Artifacts {
			switch {
			case a.URL != "":
				fmt.Fprintf(&b, "- [%s](%s)\n", escape(a.Name), a.URL)
			case a.Key != "":
				fmt.Fprintf(&b, "- %s (`%s`)\n", escape(a.Name), a.Key)
			default:
				fmt.Fprintf(&b, "- %s (`%s`)\n", escape(a.Name), a.LocalPath)
			}
		}
	}
	return []byte(b.String())
}

func writeLeftovers(b *strings.Builder, res *cleanup.Result) {
	if res == nil {
		b.WriteString("Not run.\n")
		return
	}
	if res.Empty() {
		b.WriteString("Nothing to delete.\n")
		return
	}
	fmt.Fprintf(b, "Attempted %d services and %d GitHub integration instances.\n\n",
		len(res.Services), len(res.Instances))
	b.WriteString("| Kind | ID | Result |\n|---|---|---|\n")
	for _, o := range res.Outcomes {
		result := "deleted"
		switch {
		case !o.OK():
			result = "FAILED: " + o.Error
		case o.AlreadyGone:
			result = "already gone"
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", o.Kind, cell(o.ID), cell(result))
	}
}

// HTML renders markdown and sanitizes the result. Step errors embed text
// scraped from the UI, so the output is never trusted as-is.
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse(md)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(escape(s), "|", `\|`)
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
