// The live Service Catalog scenario. It signs in to the hosted catalog,
// creates a service, installs the GitHub integration, maps the ingested
// repository, and tears everything down through the REST API.
//
// Prerequisites:
// - KONNECT_API_TOKEN, E2E_USERNAME and E2E_PASSWORD in the environment or .env
// - Install Playwright browsers: go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
// - Run with: go test -v -timeout 10m -run TestCatalogScenario_Live ./tests/browser/...
package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/artifacts"
	"github.com/lucad87test-org/kong-test/internal/cleanup"
	"github.com/lucad87test-org/kong-test/internal/config"
	"github.com/lucad87test-org/kong-test/internal/konnect"
	"github.com/lucad87test-org/kong-test/internal/obs"
	"github.com/lucad87test-org/kong-test/internal/pages"
	"github.com/lucad87test-org/kong-test/internal/report"
	"github.com/lucad87test-org/kong-test/internal/scenario"
)

func TestCatalogScenario_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live catalog scenario in short mode")
	}
	if err := config.LoadDotEnv("../../.env"); err != nil {
		t.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.LoadConfig(config.RequireBrowser, nil)
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		t.Skipf("Live catalog not configured: %v", err)
	}
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if testing.Verbose() {
		cfg.PrintSummary(os.Stderr)
	}
	obs.Init()

	ctx := context.Background()
	client, err := konnect.New(konnect.Config{BaseURL: cfg.APIURL, Token: cfg.APIToken, RPS: cfg.APIRPS})
	if err != nil {
		t.Fatalf("Failed to create Konnect client: %v", err)
	}

	run := scenario.New("kong service catalog")
	run.ServiceName = cfg.Accounts.KonnectServiceName
	store, err := artifacts.FromConfig(ctx, cfg, run.ID)
	if err != nil {
		t.Fatalf("Failed to create artifact store: %v", err)
	}

	env := SetupBrowserTestEnv(t)
	env.launch(t, cfg.Headless)
	bctx := env.NewContextWithOptions(t, playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(cfg.AppURL),
	}, cfg.BrowserTimeoutMS())
	if err := bctx.Tracing().Start(playwright.TracingStartOptions{
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
	}); err != nil {
		t.Fatalf("Failed to start tracing: %v", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("Failed to create page: %v", err)
	}

	opts := pages.Options{Timeout: cfg.BrowserTimeout, TableTimeout: cfg.TableTimeout, APIURL: cfg.APIURL}
	creds := pages.Credentials{Username: cfg.Username, Password: cfg.Password}
	services := pages.NewServices(page, opts)
	flow := newCatalogFlow(services, cfg.AppURL, cfg.Accounts, opts)

	uninstallApp := func(ctx context.Context) error {
		ghPage, err := bctx.NewPage()
		if err != nil {
			return err
		}
		defer ghPage.Close()
		_, err = pages.NewGitHubApps(ghPage, cfg.Accounts, creds, opts).Uninstall(ctx)
		return err
	}

	runErr := scenario.Execute(ctx, run, scenario.Phases{
		Setup: func(ctx context.Context, r *scenario.Run) error {
			if err := r.Step(ctx, "uninstall github app", uninstallApp); err != nil {
				return err
			}
			if err := r.Step(ctx, "delete leftovers", func(ctx context.Context) error {
				res, err := cleanup.NewReconciler(client, cleanup.TreatNotFoundAsDeleted(cfg.NotFoundIsDeleted)).Run(ctx)
				r.Leftovers = res
				return err
			}); err != nil {
				return err
			}
			if err := r.Step(ctx, "sign in", func(ctx context.Context) error {
				login := pages.NewLogin(page, cfg.Accounts, creds, opts)
				if err := login.Open(ctx, cfg.SignInURL); err != nil {
					return err
				}
				return login.Konnect(ctx)
			}); err != nil {
				return err
			}
			if err := r.Step(ctx, "navigate to catalog", func(ctx context.Context) error {
				if err := services.Navigate(ctx); err != nil {
					return err
				}
				return services.VerifyNavigation(ctx, cfg.Accounts.KonnectOrgName, cfg.Accounts.KonnectRegion)
			}); err != nil {
				return err
			}
			return r.Step(ctx, "verify no github apps", func(ctx context.Context) error {
				ghPage, err := bctx.NewPage()
				if err != nil {
					return err
				}
				defer ghPage.Close()
				apps := pages.NewGitHubApps(ghPage, cfg.Accounts, creds, opts)
				if err := apps.Open(ctx); err != nil {
					return err
				}
				if err := apps.VerifyNoneInstalled(ctx); err != nil {
					return err
				}
				return page.BringToFront()
			})
		},
		Body: flow.Body,
		Teardown: func(ctx context.Context, r *scenario.Run) error {
			return errors.Join(
				r.Step(ctx, "delete scenario entities", func(ctx context.Context) error {
					return cleanup.Teardown(ctx, client, r.Targets())
				}),
				r.Step(ctx, "uninstall github app", uninstallApp),
			)
		},
	})

	saveRunArtifacts(t, store, run, bctx, page, runErr)
	if runErr != nil {
		t.Fatalf("Catalog scenario failed: %v", runErr)
	}
}

// saveRunArtifacts stores the failure screenshot, the trace and the report.
// Upload errors are logged, never fatal: the local copies remain.
func saveRunArtifacts(t *testing.T, store *artifacts.Store, run *scenario.Run, bctx playwright.BrowserContext, page playwright.Page, runErr error) {
	t.Helper()
	ctx := run.Context(context.Background())

	if run.Failed() {
		if shot, err := page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)}); err == nil {
			if _, err := store.Save(ctx, "screenshots/failure.png", shot); err != nil {
				t.Logf("Failed to save screenshot: %v", err)
			}
		}
	}

	tracePath, err := store.Path("trace.zip")
	if err == nil {
		err = os.MkdirAll(filepath.Dir(tracePath), 0o755)
	}
	if err == nil {
		err = bctx.Tracing().Stop(tracePath)
	}
	if err == nil {
		_, err = store.Upload(ctx, "trace.zip")
	}
	if err != nil {
		t.Logf("Failed to save trace: %v", err)
	}

	md := report.Markdown(report.Input{
		Run:       run,
		Err:       runErr,
		Artifacts: store.Refs(),
		Finished:  time.Now(),
	})
	if _, err := store.Save(ctx, "report.md", md); err != nil {
		t.Logf("Failed to save report: %v", err)
	}
	if _, err := store.Save(ctx, "report.html", report.HTML(md)); err != nil {
		t.Logf("Failed to save HTML report: %v", err)
	}
	t.Logf("Run %s artifacts in %s", run.ID, store.RunDir())
}
