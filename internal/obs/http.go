package obs

import (
	"net/http"
	"time"

	"github.com/lucad87test-org/kong-test/internal/logutil"
)

// Transport is an http.RoundTripper that emits one structured event per outbound request.
type Transport struct {
	Base http.RoundTripper
	Pkg  string
}

// NewTransport wraps next (http.DefaultTransport when nil) with access logging.
func NewTransport(pkg string, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Base: next, Pkg: pkg}
}

// RoundTrip logs method, path, status and duration. Header values are redacted.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	durMS := float64(time.Since(start).Microseconds()) / 1000.0

	l := From(req.Context()).With("pkg", t.Pkg)
	if err != nil {
		l.Warn(
			"http_client",
			"method", req.Method,
			"url", logutil.RedactURLForLog(req.URL),
			"dur_ms", durMS,
			"error", err.Error(),
		)
		return nil, err
	}

	l.Debug(
		"http_client",
		"method", req.Method,
		"url", logutil.RedactURLForLog(req.URL),
		"status", resp.StatusCode,
		"dur_ms", durMS,
		"req_headers", logutil.FormatHeadersForLog(req.Header),
	)
	return resp, nil
}
