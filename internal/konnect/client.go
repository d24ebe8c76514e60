// Package konnect is a small REST client for the Service Hub API used to set up
// and tear down catalog entities around browser scenarios.
package konnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/lucad87test-org/kong-test/internal/errs"
	"github.com/lucad87test-org/kong-test/internal/logutil"
	"github.com/lucad87test-org/kong-test/internal/obs"
)

const (
	servicesPath             = "/servicehub/v1/services"
	integrationInstancesPath = "/servicehub/v1/integration-instances"

	defaultPageSize = 100
	maxPages        = 100
	maxBodyPreview  = 256
)

// Config configures a Client.
type Config struct {
	// BaseURL is the regional API origin, e.g. https://eu.api.konghq.com.
	BaseURL string
	// Token is a personal or system access token sent as a bearer token.
	Token string
	// RPS paces requests. Zero means 10 per second.
	RPS float64
	// Burst is the limiter burst. Zero means 1.
	Burst int
	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
	// PageSize for list calls. Zero means 100.
	PageSize int
	// Transport replaces the underlying transport (tests).
	Transport http.RoundTripper
}

// Client talks to the Service Hub API. It is safe for concurrent use, but
// callers in this suite issue requests sequentially.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// New creates a Client. The token is attached by an oauth2 transport and is
// redacted from request logs.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errs.New(errs.InvalidArgument, "konnect: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "konnect: invalid base URL", err)
	}
	if cfg.Token == "" {
		return nil, errs.New(errs.InvalidArgument, "konnect: token is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	transport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
		Base:   obs.NewTransport("konnect", cfg.Transport),
	}

	return &Client{
		baseURL:  base,
		pageSize: cfg.PageSize,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}, nil
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResourceServicesURL is the endpoint the UI posts to when mapping a resource
// of an integration instance to a service.
func (c *Client) ResourceServicesURL(integrationID string) string {
	return c.baseURL + "/servicehub/v1/resources/" + url.PathEscape(integrationID) + "/services"
}

// ListServices returns every catalog service.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	return listAll(ctx, c, servicesPath, "list services", func(s Service) string { return s.ID })
}

// ListIntegrationInstances returns every integration instance, of any integration.
func (c *Client) ListIntegrationInstances(ctx context.Context) ([]IntegrationInstance, error) {
	return listAll(ctx, c, integrationInstancesPath, "list integration instances", func(i IntegrationInstance) string { return i.ID })
}

// DeleteService deletes one service. Only 204 is success.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.delete(ctx, servicesPath, id, "delete service", "service")
}

// DeleteIntegrationInstance deletes one integration instance. Only 204 is success.
func (c *Client) DeleteIntegrationInstance(ctx context.Context, id string) error {
	return c.delete(ctx, integrationInstancesPath, id, "delete integration instance", "integration")
}

func (c *Client) delete(ctx context.Context, collection, id, op, noun string) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.InvalidArgument, op+": id is required")
	}

	resp, err := c.do(ctx, http.MethodDelete, collection+"/"+url.PathEscape(id), nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, fmt.Sprintf("failed to delete %s with ID %s", noun, id), err)
	}
	if resp.StatusCode == http.StatusNoContent {
		drain(resp)
		return nil
	}
	logUnexpected(ctx, op, resp)

	code := errs.DeleteFailed
	if errs.CodeForStatus(resp.StatusCode) == errs.NotFound {
		code = errs.NotFound
	}
	return errs.Wrap(code,
		fmt.Sprintf("failed to delete %s with ID %s. Status: %d", noun, id, resp.StatusCode),
		classify(&StatusError{Op: op, ID: id, Status: resp.StatusCode}),
	)
}

// classify wraps se in the code its HTTP status maps to.
func classify(se *StatusError) error {
	code := errs.CodeForStatus(se.Status)
	if code == "" {
		code = errs.Internal
	}
	return errs.Wrap(code, se.Error(), se)
}

// listAll pages through path. A page that echoes a different page number, or
// that adds no unseen ids, ends the listing: servers that ignore paging would
// otherwise return the first page forever.
func listAll[T any](ctx context.Context, c *Client, path, op string, idOf func(T) string) ([]T, error) {
	out := make([]T, 0)
	seen := make(map[string]struct{})
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("page[size]", strconv.Itoa(c.pageSize))
		q.Set("page[number]", strconv.Itoa(page))

		resp, err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil)
		if err != nil {
			return nil, errs.Wrap(errs.FetchFailed, op+" failed", err)
		}
		if resp.StatusCode != http.StatusOK {
			logUnexpected(ctx, op, resp)
			return nil, errs.Wrap(errs.FetchFailed,
				fmt.Sprintf("%s failed. Status: %d", op, resp.StatusCode),
				classify(&StatusError{Op: op, Status: resp.StatusCode}),
			)
		}

		var body listResponse[T]
		err = json.NewDecoder(resp.Body).Decode(&body)
		drain(resp)
		if err != nil {
			return nil, errs.Wrap(errs.FetchFailed, op+": decode response", err)
		}

		meta := body.Meta.Page
		if page > 1 && meta != nil && meta.Number != 0 && meta.Number != page {
			return out, nil
		}

		added := 0
		for _, item := range body.Data {
			id := idOf(item)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, item)
			added++
		}
		if meta == nil || added == 0 || len(out) >= meta.Total {
			return out, nil
		}
	}
	return nil, errs.New(errs.FetchFailed, fmt.Sprintf("%s: more than %d pages", op, maxPages))
}

func (c *Client) do(ctx context.Context, method, pathAndQuery string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// oauth2.Transport wraps errors in *url.Error; surface context errors as-is.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, err
	}
	return resp, nil
}

// logUnexpected logs a preview of an error response body and drains it.
func logUnexpected(ctx context.Context, op string, resp *http.Response) {
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	drain(resp)
	obs.From(ctx).With("pkg", "konnect").Debug("unexpected_status",
		"op", op,
		"status", resp.StatusCode,
		"body", logutil.TruncateForLog(string(preview), maxBodyPreview),
	)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
