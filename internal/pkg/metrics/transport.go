package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// transport wraps an http.RoundTripper to collect metrics on backend calls
type transport struct {
	base http.RoundTripper
}

// NewTransport returns a RoundTripper that records call counts and
// latency for every request passing through it. Install it as the client's
// Transport; it never alters the request or response.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base}
}

// RoundTrip implements http.RoundTripper
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	route := normalizeRoute(req.URL.Path)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	APICalls.WithLabelValues(req.Method, route, strconv.Itoa(statusCode)).Inc()
	APIDuration.WithLabelValues(req.Method, route).Observe(float64(duration.Milliseconds()))

	if err != nil {
		APIErrors.WithLabelValues(req.Method, route).Inc()
	}

	return resp, err
}

// oauthCallbackPattern matches provider-specific OAuth callback paths so
// every provider collapses into one route label.
var oauthCallbackPattern = regexp.MustCompile(`^/oauth/callback/[^/]+$`)

// normalizeRoute collapses variable path segments to keep label
// cardinality bounded. Query strings (mentId=...) are already excluded
// since only the path is used.
func normalizeRoute(path string) string {
	if oauthCallbackPattern.MatchString(path) {
		return "/oauth/callback/{provider}"
	}
	return path
}
