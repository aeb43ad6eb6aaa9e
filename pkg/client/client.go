package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gridpool/gridpool/pkg/manager"
	"github.com/gridpool/gridpool/pkg/types"
)

// Client talks to a gridpool server over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at addr (host:port or a
// full http:// url).
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 422 carries a decodable rejection result, not a transport error.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnprocessableEntity {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ContributeNode offers a node's capacity to the cluster.
func (c *Client) ContributeNode(ctx context.Context, req *manager.NodeContributionRequest) (*manager.ContributionResult, error) {
	var result manager.ContributionResult
	if err := c.do(ctx, http.MethodPost, "/v1/nodes", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListNodes returns every registered node.
func (c *Client) ListNodes(ctx context.Context) ([]*types.Node, error) {
	var nodes []*types.Node
	if err := c.do(ctx, http.MethodGet, "/v1/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// ReleaseNode requests removal of a node at the next daily cutover.
func (c *Client) ReleaseNode(ctx context.Context, nodeURL, ownerNetID string) error {
	body := map[string]string{"url": nodeURL, "owner_net_id": ownerNetID}
	return c.do(ctx, http.MethodPost, "/v1/nodes/release", body, nil)
}

// CancelRelease cancels a pending node removal.
func (c *Client) CancelRelease(ctx context.Context, nodeURL, ownerNetID string) error {
	body := map[string]string{"url": nodeURL, "owner_net_id": ownerNetID}
	return c.do(ctx, http.MethodPost, "/v1/nodes/release/cancel", body, nil)
}

// RemoveNodeNow removes a node immediately, bypassing the cutover.
func (c *Client) RemoveNodeNow(ctx context.Context, nodeURL string) (*types.Node, error) {
	var node types.Node
	path := "/v1/nodes?url=" + url.QueryEscape(nodeURL)
	if err := c.do(ctx, http.MethodDelete, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// ListPendingRemovals returns the nodes awaiting the next cutover.
func (c *Client) ListPendingRemovals(ctx context.Context) ([]*types.PendingRemoval, error) {
	var pending []*types.PendingRemoval
	if err := c.do(ctx, http.MethodGet, "/v1/nodes/pending-removals", nil, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// SubmitJob submits a job request.
func (c *Client) SubmitJob(ctx context.Context, req *manager.JobRequest) (*manager.JobResult, error) {
	var result manager.JobResult
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListJobs returns every scheduled job.
func (c *Client) ListJobs(ctx context.Context) ([]*types.Job, error) {
	var jobs []*types.Job
	if err := c.do(ctx, http.MethodGet, "/v1/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// AssignedTotals returns per-faculty assigned capacity. An empty
// facultyID covers all faculties.
func (c *Client) AssignedTotals(ctx context.Context, facultyID string) ([]types.FacultyTotal, error) {
	if facultyID != "" {
		var total types.FacultyTotal
		path := "/v1/resources/assigned?faculty=" + url.QueryEscape(facultyID)
		if err := c.do(ctx, http.MethodGet, path, nil, &total); err != nil {
			return nil, err
		}
		return []types.FacultyTotal{total}, nil
	}
	var totals []types.FacultyTotal
	if err := c.do(ctx, http.MethodGet, "/v1/resources/assigned", nil, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// ReservedTotals returns per-faculty per-day reservations, optionally
// filtered by faculty and/or day (zero date means all days).
func (c *Client) ReservedTotals(ctx context.Context, facultyID string, date time.Time) ([]types.ReservedTotal, error) {
	var totals []types.ReservedTotal
	if err := c.do(ctx, http.MethodGet, "/v1/resources/reserved"+resourceQuery(facultyID, "date", date), nil, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// AvailableTotals returns per-faculty per-day derived availability with
// the same optional filters as ReservedTotals.
func (c *Client) AvailableTotals(ctx context.Context, facultyID string, date time.Time) ([]manager.AvailabilityRow, error) {
	var rows []manager.AvailabilityRow
	if err := c.do(ctx, http.MethodGet, "/v1/resources/available"+resourceQuery(facultyID, "date", date), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AvailableUntil returns one faculty's day-by-day availability from
// tomorrow through the given date.
func (c *Client) AvailableUntil(ctx context.Context, facultyID string, until time.Time) ([]types.AvailableResources, error) {
	var series []types.AvailableResources
	if err := c.do(ctx, http.MethodGet, "/v1/resources/available-until"+resourceQuery(facultyID, "until", until), nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// SetPolicies swaps the active policies; empty names leave the current
// policy in place.
func (c *Client) SetPolicies(ctx context.Context, jobPolicy, assignmentPolicy string) error {
	body := map[string]string{}
	if jobPolicy != "" {
		body["job"] = jobPolicy
	}
	if assignmentPolicy != "" {
		body["assignment"] = assignmentPolicy
	}
	return c.do(ctx, http.MethodPut, "/v1/policies", body, nil)
}

// RunRemovalBatch triggers the removal batch immediately.
func (c *Client) RunRemovalBatch(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/removals/run", nil, nil)
}

func resourceQuery(facultyID, dateParam string, date time.Time) string {
	q := url.Values{}
	if facultyID != "" {
		q.Set("faculty", facultyID)
	}
	if !date.IsZero() {
		q.Set(dateParam, date.Format(time.DateOnly))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
