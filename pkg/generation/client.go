// Package generation drives the remote ComfyUI-like image generation
// queue: submitting an injected workflow, polling for completion with
// bounded timeout and adaptive backoff, and fetching the resulting image
// bytes.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/veighnsche/darkwall/pkg/types"
)

// MinPollIntervalSeconds/MaxPollIntervalSeconds bound poll_interval (spec §4.7).
const (
	MinPollIntervalSeconds = 1
	MaxPollIntervalSeconds = 60
	MinTimeoutSeconds      = 1
	MaxTimeoutSeconds      = 3600
)

// retryDelays are the nominal exponential backoff delays between the
// driver's bounded retry attempts (spec §4.7: "2s, 4s, 8s").
var retryDelays = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

const maxRetryAttempts = 3

// Client drives the remote generation service over HTTP. A Client is
// safe for concurrent use, though the pipeline only ever drives one
// generation at a time (spec §5).
type Client struct {
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
	ClientID     string

	httpClient *http.Client
}

// NewClient validates timeout/pollInterval and returns a Client whose
// transport is tuned the way the teacher's connection.DaemonConnection-
// Manager tunes its daemon HTTP client: a modest connection pool sized
// for a single long-lived polling loop, not a fan-out of requests.
func NewClient(baseURL string, timeoutSeconds, pollIntervalSeconds int) (*Client, error) {
	if timeoutSeconds < MinTimeoutSeconds || timeoutSeconds > MaxTimeoutSeconds {
		return nil, types.NewError(types.ErrConfigInvalid, "generation.NewClient",
			fmt.Sprintf("timeout must be in [%d,%d], got %d", MinTimeoutSeconds, MaxTimeoutSeconds, timeoutSeconds))
	}
	if pollIntervalSeconds < MinPollIntervalSeconds || pollIntervalSeconds > MaxPollIntervalSeconds {
		return nil, types.NewError(types.ErrConfigInvalid, "generation.NewClient",
			fmt.Sprintf("poll_interval must be in [%d,%d], got %d", MinPollIntervalSeconds, MaxPollIntervalSeconds, pollIntervalSeconds))
	}

	return &Client{
		BaseURL:      baseURL,
		PollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		Timeout:      time.Duration(timeoutSeconds) * time.Second,
		ClientID:     uuid.NewString(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type submitRequest struct {
	Prompt   any    `json:"prompt"`
	ClientID string `json:"client_id"`
}

type submitResponse struct {
	PromptID   string         `json:"prompt_id"`
	Number     int            `json:"number"`
	NodeErrors map[string]any `json:"node_errors"`
}

// Submit POSTs the injected workflow to {base_url}/prompt, returning the
// opaque prompt id and initial queue position.
func (c *Client) Submit(ctx context.Context, workflow any) (promptID string, queuePosition int, err error) {
	body, err := json.Marshal(submitRequest{Prompt: workflow, ClientID: c.ClientID})
	if err != nil {
		return "", 0, types.Wrap(types.ErrSubmissionRejected, "generation.Submit", err)
	}

	resp, err := c.doWithRetry(ctx, http.MethodPost, c.BaseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, types.Wrap(types.ErrNetworkUnreachable, "generation.Submit", err)
	}

	if resp.StatusCode >= 400 {
		return "", 0, types.NewError(types.ErrSubmissionRejected, "generation.Submit",
			fmt.Sprintf("service rejected workflow (status %d): %s", resp.StatusCode, string(raw)))
	}

	var sr submitResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return "", 0, types.Wrap(types.ErrSubmissionRejected, "generation.Submit", err)
	}
	if len(sr.NodeErrors) > 0 {
		return "", 0, types.NewError(types.ErrSubmissionRejected, "generation.Submit",
			fmt.Sprintf("service reported node errors: %v", sr.NodeErrors))
	}
	if sr.PromptID == "" {
		return "", 0, types.NewError(types.ErrSubmissionRejected, "generation.Submit", "service returned no prompt_id")
	}
	return sr.PromptID, sr.Number, nil
}

// historyEntry is one prompt's record within a GET /history/{id} response.
type historyEntry struct {
	Outputs map[string]nodeOutput `json:"outputs"`
	Status  *historyStatus        `json:"status"`
}

type historyStatus struct {
	Completed    bool   `json:"completed"`
	StatusStr    string `json:"status_str"`
}

type nodeOutput struct {
	Images []imageRef `json:"images"`
	Errors []string   `json:"errors,omitempty"`
}

type imageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// pollResult is what one /history poll resolved to.
type pollResult struct {
	pending bool
	image   imageRef
	found   bool
}

// pollOnce issues one GET /history/{promptID} call and interprets it.
func (c *Client) pollOnce(ctx context.Context, promptID string) (pollResult, error) {
	resp, err := c.doWithRetry(ctx, http.MethodGet, c.BaseURL+"/history/"+promptID, nil)
	if err != nil {
		return pollResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pollResult{}, types.Wrap(types.ErrNetworkUnreachable, "generation.pollOnce", err)
	}

	var history map[string]historyEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		return pollResult{}, types.Wrap(types.ErrGenerationFailed, "generation.pollOnce", err)
	}

	entry, ok := history[promptID]
	if !ok {
		return pollResult{pending: true}, nil
	}
	if entry.Status != nil && !entry.Status.Completed {
		return pollResult{pending: true}, nil
	}

	var nodeErrors []string
	var image imageRef
	found := false
	for _, out := range entry.Outputs {
		nodeErrors = append(nodeErrors, out.Errors...)
		if !found && len(out.Images) > 0 {
			image = out.Images[0]
			found = true
		}
	}
	if len(nodeErrors) > 0 {
		return pollResult{}, types.NewError(types.ErrGenerationFailed, "generation.pollOnce",
			fmt.Sprintf("service reported node errors: %v", nodeErrors))
	}
	if !found {
		return pollResult{pending: true}, nil
	}
	return pollResult{image: image, found: true}, nil
}

// Fetch retrieves the image bytes named by ref from {base_url}/view.
func (c *Client) Fetch(ctx context.Context, ref imageRef) ([]byte, error) {
	viewURL := fmt.Sprintf("%s/view?filename=%s&subfolder=%s&type=%s",
		c.BaseURL, url.QueryEscape(ref.Filename), url.QueryEscape(ref.Subfolder), url.QueryEscape(ref.Type))

	resp, err := c.doWithRetry(ctx, http.MethodGet, viewURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, types.NewError(types.ErrImageFetchFailed, "generation.Fetch",
			fmt.Sprintf("fetch failed with status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.Wrap(types.ErrImageFetchFailed, "generation.Fetch", err)
	}
	return raw, nil
}

// SystemStats is the identity payload returned by GET /system_stats.
type SystemStats struct {
	System map[string]any `json:"system"`
	Devices []map[string]any `json:"devices"`
}

// Health reports the remote service's identity for status diagnostics.
func (c *Client) Health(ctx context.Context) (SystemStats, error) {
	resp, err := c.doWithRetry(ctx, http.MethodGet, c.BaseURL+"/system_stats", nil)
	if err != nil {
		return SystemStats{}, err
	}
	defer resp.Body.Close()

	var stats SystemStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return SystemStats{}, types.Wrap(types.ErrNetworkUnreachable, "generation.Health", err)
	}
	return stats, nil
}
