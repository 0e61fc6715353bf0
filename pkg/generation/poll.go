package generation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/veighnsche/darkwall/pkg/types"
)

// maxPollBackoffMultiple bounds how far the adaptive poll interval is
// allowed to lengthen past c.PollInterval on repeated empty responses,
// grounded on the teacher's daemon.LaunchProgressMonitor ticker, which
// caps its own backoff rather than growing unbounded.
const maxPollBackoffMultiple = 4

// Result is a completed generation: the raw image bytes and the prompt
// id the service assigned, retained for diagnostics.
type Result struct {
	PromptID string
	Image    []byte
}

// Generate submits workflow, polls until the service reports completion
// or the client's bounded timeout elapses, and fetches the resulting
// image. The whole operation is bounded by c.Timeout regardless of how
// many individual HTTP retries occur along the way.
func (c *Client) Generate(ctx context.Context, workflow any) (Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	promptID, _, err := c.Submit(ctx, workflow)
	if err != nil {
		return Result{}, err
	}

	ref, err := c.awaitCompletion(ctx, promptID, start)
	if err != nil {
		return Result{}, err
	}

	image, err := c.Fetch(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	return Result{PromptID: promptID, Image: image}, nil
}

// awaitCompletion polls /history, lengthening the interval on each
// consecutive pending response up to maxPollBackoffMultiple times the
// configured poll_interval, so a slow queue doesn't cause needless
// request volume.
func (c *Client) awaitCompletion(ctx context.Context, promptID string, start time.Time) (imageRef, error) {
	interval := c.PollInterval
	ceiling := c.PollInterval * maxPollBackoffMultiple

	for {
		select {
		case <-ctx.Done():
			return imageRef{}, types.NewError(types.ErrGenerationTimeout, "generation.awaitCompletion",
				timeoutMessage(start))
		case <-time.After(interval):
		}

		result, err := c.pollOnce(ctx, promptID)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return imageRef{}, types.NewError(types.ErrGenerationTimeout, "generation.awaitCompletion",
					timeoutMessage(start))
			}
			return imageRef{}, err
		}

		if result.found {
			return result.image, nil
		}

		if interval < ceiling {
			interval *= 2
			if interval > ceiling {
				interval = ceiling
			}
		}
	}
}

func timeoutMessage(start time.Time) string {
	return "generation did not complete within the configured timeout (elapsed " + time.Since(start).String() + ")"
}

// doWithRetry issues one HTTP request, retrying up to maxRetryAttempts
// times with the backoff schedule in retryDelays when the failure looks
// transient: a connection-level error or a 5xx response. Non-transient
// failures (4xx, malformed bodies the caller decodes itself) are
// returned on the first attempt.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	var bodyBytes []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, types.Wrap(types.ErrNetworkUnreachable, "generation.doWithRetry", err)
		}
		bodyBytes = b
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, types.NewError(types.ErrNetworkUnreachable, "generation.doWithRetry", ctx.Err().Error())
			case <-time.After(retryDelays[attempt-1]):
			}
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, types.Wrap(types.ErrNetworkUnreachable, "generation.doWithRetry", err)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = types.Wrap(types.ErrNetworkUnreachable, "generation.doWithRetry", err)
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = types.NewError(types.ErrNetworkUnreachable, "generation.doWithRetry",
				"service returned a server error")
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}
