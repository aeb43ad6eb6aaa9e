package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Result is the outcome of one reachability probe.
type Result struct {
	Reachable bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker probes a single contributed node for reachability.
type Checker interface {
	Check(ctx context.Context) Result
}

// CheckerFor picks a checker for a node url: HTTP for http(s) urls,
// a bare TCP dial for anything else.
func CheckerFor(nodeURL string, timeout time.Duration) Checker {
	if strings.HasPrefix(nodeURL, "http://") || strings.HasPrefix(nodeURL, "https://") {
		return NewHTTPChecker(nodeURL, timeout)
	}
	return NewTCPChecker(nodeURL, timeout)
}

// HTTPChecker probes a node over HTTP. Any response below 500 counts
// as reachable; the node answering at all is what matters.
type HTTPChecker struct {
	url    string
	client *http.Client
}

// NewHTTPChecker creates an HTTP reachability checker.
func NewHTTPChecker(url string, timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Check performs the HTTP probe.
func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return Result{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{
			Message:   fmt.Sprintf("request failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer resp.Body.Close()

	return Result{
		Reachable: resp.StatusCode < 500,
		Message:   fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
