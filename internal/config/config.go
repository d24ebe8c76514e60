// Package config provides centralized configuration for the Service Catalog suite.
// It loads values from environment variables (after an optional .env file),
// validates the credentials a run needs, and provides fixture defaults for the
// test account.
//
// Credentials (API token, login username and password, S3 keys) are only ever read
// from the environment. Nothing in this package carries a literal secret.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lucad87test-org/kong-test/internal/urlutil"
)

const (
	defaultAPIURL       = "https://eu.api.konghq.com"
	defaultSignInURL    = "https://signin.cloud.konghq.com/"
	defaultAppURL       = "https://cloud.konghq.com/eu/"
	defaultArtifactsReg = "auto"
	githubURL           = "https://github.com"
)

// Config holds all suite configuration.
type Config struct {
	// Service Hub REST API
	APIURL   string  // KONNECT_API_URL
	APIToken string  // KONNECT_API_TOKEN
	APIRPS   float64 // KONNECT_API_RPS

	// Browser
	SignInURL      string        // KONNECT_SIGNIN_URL
	AppURL         string        // KONNECT_APP_URL, base for relative page navigation
	Headless       bool          // HEADLESS
	BrowserTimeout time.Duration // BROWSER_TIMEOUT, default Playwright wait budget
	TableTimeout   time.Duration // TABLE_TIMEOUT, wait budget for catalog tables

	// Login credentials, shared by the SSO form and the GitHub sign-in page
	Username string // E2E_USERNAME
	Password string // E2E_PASSWORD

	// Cleanup
	NotFoundIsDeleted bool // CLEANUP_NOT_FOUND_IS_SUCCESS

	Accounts Accounts

	// Artifacts (S3-compatible; empty bucket disables uploads)
	ArtifactsEndpoint     string // ARTIFACTS_ENDPOINT_URL
	ArtifactsRegion       string // ARTIFACTS_REGION
	ArtifactsBucket       string // ARTIFACTS_BUCKET
	ArtifactsAccessKeyID  string // ARTIFACTS_ACCESS_KEY_ID
	ArtifactsSecretKey    string // ARTIFACTS_SECRET_ACCESS_KEY
	ArtifactsPublicURL    string // ARTIFACTS_PUBLIC_URL
	ArtifactsLocalDir     string // ARTIFACTS_DIR, local copy of every artifact
	ArtifactsUsePathStyle bool   // ARTIFACTS_PATH_STYLE
}

// Accounts are the fixture details of the test organization.
type Accounts struct {
	KonnectOrgName     string // KONNECT_ORG_NAME
	KonnectRegion      string // KONNECT_REGION, display label of the region select
	KonnectServiceName string // KONNECT_SERVICE_NAME
	SSOLoginPath       string // SSO_LOGIN_PATH
	Auth0Instance      string // AUTH0_INSTANCE

	GitHubOrg     string // GITHUB_ORG
	GitHubRepo    string // GITHUB_REPO
	GitHubAppName string // GITHUB_APP_NAME
}

// GitHubInstallationsURL is the org settings page listing installed GitHub Apps.
func (a Accounts) GitHubInstallationsURL() string {
	return urlutil.BuildAbsolute(githubURL, "organizations/"+url.PathEscape(a.GitHubOrg)+"/settings/installations")
}

// GitHubRepoFullName returns "<org>/<repo>" as shown in the integration resource table.
func (a Accounts) GitHubRepoFullName() string {
	return a.GitHubOrg + "/" + a.GitHubRepo
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Requirement selects which credentials Validate insists on.
type Requirement int

const (
	// RequireAPI needs only the REST API token (cleanup CLI, teardown).
	RequireAPI Requirement = iota
	// RequireBrowser needs the API token and the login credentials.
	RequireBrowser
)

// LoadDotEnv loads an optional .env file into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads the optional .env file, reads the environment, applies
// override (flags, may be nil) and validates the result for req.
func LoadConfig(req Requirement, override func(*Config)) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := FromEnv()
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(req); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads every variable without validating.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.APIURL = strings.TrimRight(getEnvOrDefault("KONNECT_API_URL", defaultAPIURL), "/")
	cfg.APIToken = strings.TrimSpace(os.Getenv("KONNECT_API_TOKEN"))
	cfg.APIRPS = parseFloat64OrDefault("KONNECT_API_RPS", 10)

	cfg.SignInURL = getEnvOrDefault("KONNECT_SIGNIN_URL", defaultSignInURL)
	cfg.AppURL = getEnvOrDefault("KONNECT_APP_URL", defaultAppURL)
	if !strings.HasSuffix(cfg.AppURL, "/") {
		cfg.AppURL += "/"
	}
	cfg.Headless = parseBoolOrDefault("HEADLESS", true)
	cfg.BrowserTimeout = parseDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second)
	cfg.TableTimeout = parseDurationOrDefault("TABLE_TIMEOUT", 30*time.Second)

	cfg.Username = strings.TrimSpace(os.Getenv("E2E_USERNAME"))
	cfg.Password = os.Getenv("E2E_PASSWORD")

	cfg.NotFoundIsDeleted = parseBoolOrDefault("CLEANUP_NOT_FOUND_IS_SUCCESS", true)

	cfg.Accounts = Accounts{
		KonnectOrgName:     getEnvOrDefault("KONNECT_ORG_NAME", "lucad87"),
		KonnectRegion:      getEnvOrDefault("KONNECT_REGION", "EU (Europe)"),
		KonnectServiceName: getEnvOrDefault("KONNECT_SERVICE_NAME", "lucad87test-service"),
		SSOLoginPath:       getEnvOrDefault("SSO_LOGIN_PATH", "okta-login-d3rsvpl2fqxk1poj"),
		Auth0Instance:      getEnvOrDefault("AUTH0_INSTANCE", "dev-d3rsvpl2fqxk1poj"),
		GitHubOrg:          getEnvOrDefault("GITHUB_ORG", "lucad87test-org"),
		GitHubRepo:         getEnvOrDefault("GITHUB_REPO", "kong-test"),
		GitHubAppName:      getEnvOrDefault("GITHUB_APP_NAME", "Konnect Service Catalog"),
	}

	cfg.ArtifactsEndpoint = getEnvOrDefault("ARTIFACTS_ENDPOINT_URL", "")
	cfg.ArtifactsRegion = getEnvOrDefault("ARTIFACTS_REGION", defaultArtifactsReg)
	cfg.ArtifactsBucket = getEnvOrDefault("ARTIFACTS_BUCKET", "")
	cfg.ArtifactsAccessKeyID = getEnvOrDefault("ARTIFACTS_ACCESS_KEY_ID", "")
	cfg.ArtifactsSecretKey = getEnvOrDefault("ARTIFACTS_SECRET_ACCESS_KEY", "")
	cfg.ArtifactsPublicURL = getEnvOrDefault("ARTIFACTS_PUBLIC_URL", "")
	cfg.ArtifactsLocalDir = getEnvOrDefault("ARTIFACTS_DIR", "test-results")
	cfg.ArtifactsUsePathStyle = parseBoolOrDefault("ARTIFACTS_PATH_STYLE", true)
	if cfg.ArtifactsPublicURL == "" && cfg.ArtifactsEndpoint != "" && cfg.ArtifactsBucket != "" {
		cfg.ArtifactsPublicURL = strings.TrimRight(cfg.ArtifactsEndpoint, "/") + "/" + cfg.ArtifactsBucket
	}

	return cfg
}

// Validate checks that the configuration needed for req is present and valid.
// Every problem is reported, not just the first.
func (c *Config) Validate(req Requirement) error {
	var errs []string

	if c.APIToken == "" {
		errs = append(errs, "KONNECT_API_TOKEN is required (personal access token with Service Hub access)")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		errs = append(errs, "KONNECT_API_URL must be an http(s) URL")
	}
	if c.APIRPS <= 0 {
		errs = append(errs, "KONNECT_API_RPS must be positive")
	}

	if req == RequireBrowser {
		if c.Username == "" {
			errs = append(errs, "E2E_USERNAME is required for browser scenarios")
		}
		if c.Password == "" {
			errs = append(errs, "E2E_PASSWORD is required for browser scenarios")
		}
		if c.BrowserTimeout <= 0 {
			errs = append(errs, "BROWSER_TIMEOUT must be positive")
		}
		if c.TableTimeout <= 0 {
			errs = append(errs, "TABLE_TIMEOUT must be positive")
		}
	}

	// Artifacts are optional, but a half-configured bucket is a mistake.
	if c.ArtifactsBucket != "" {
		if c.ArtifactsAccessKeyID == "" {
			errs = append(errs, "ARTIFACTS_ACCESS_KEY_ID is required when ARTIFACTS_BUCKET is set")
		}
		if c.ArtifactsSecretKey == "" {
			errs = append(errs, "ARTIFACTS_SECRET_ACCESS_KEY is required when ARTIFACTS_BUCKET is set")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ArtifactsEnabled reports whether artifacts are uploaded to S3.
func (c *Config) ArtifactsEnabled() bool {
	return c.ArtifactsBucket != ""
}

// BrowserTimeoutMS returns the Playwright wait budget in milliseconds.
func (c *Config) BrowserTimeoutMS() float64 {
	return float64(c.BrowserTimeout.Milliseconds())
}

// PrintSummary prints a human-readable summary of the configuration to w.
// Secrets are never printed.
func (c *Config) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "service catalog suite")
	fmt.Fprintf(w, "  API:       %s (%.1f req/s)\n", c.APIURL, c.APIRPS)
	fmt.Fprintf(w, "  App:       %s\n", c.AppURL)
	fmt.Fprintf(w, "  Org:       %s (%s)\n", c.Accounts.KonnectOrgName, c.Accounts.KonnectRegion)
	fmt.Fprintf(w, "  GitHub:    %s\n", c.Accounts.GitHubRepoFullName())
	if c.ArtifactsEnabled() {
		fmt.Fprintf(w, "  Artifacts: s3://%s\n", c.ArtifactsBucket)
	} else {
		fmt.Fprintf(w, "  Artifacts: %s (local only)\n", c.ArtifactsLocalDir)
	}
	fmt.Fprintln(w, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
