// Package workerclient is the thin HTTP transport a worker process
// uses to speak the /queue, /result, and /heartbeat wire protocol of
// spec.md §6 against the coordination master. Any process implementing
// the same three calls is an equally valid worker; this package is
// just the one cmd/worker links against.
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/distsudoku/master/internal/domain/partition"
)

// ErrNoSubJobAvailable is returned by PullSubJob when the master's
// queue has nothing pending — callers should back off and retry
// rather than treat this as a hard failure.
var ErrNoSubJobAvailable = fmt.Errorf("no sub-job available")

// Client is a minimal REST client over a master's HTTP surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client, e.g. to tune
// transport-level timeouts or add an instrumented RoundTripper.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the Client's http.Client.
// Options apply in order: after WithHTTPClient it sets the timeout on
// the supplied client; before it, the supplied client replaces it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client pointed at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// PullSubJob fetches the next pending sub-job for workerID, per
// GET /queue?workerId=.... Returns ErrNoSubJobAvailable when the queue
// is empty.
func (c *Client) PullSubJob(ctx context.Context, workerID string) (*partition.SubJob, error) {
	resp, err := c.do(ctx, http.MethodGet, "/queue?workerId="+workerID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoSubJobAvailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode pull response: %w", err)
	}

	var sj partition.SubJob
	if err := json.Unmarshal(env.Data, &sj); err != nil {
		return nil, fmt.Errorf("decode sub-job: %w", err)
	}
	return &sj, nil
}

// SubmitResultRequest is the body POST /result expects.
type SubmitResultRequest struct {
	SubJobID   string `json:"id"`
	Values     []int  `json:"values"`
	SureMask   []bool `json:"sureMask"`
	Iteration  int    `json:"iteration"`
	Unsolvable bool   `json:"unsolvable,omitempty"`
}

// SubmitResult posts a solved (or unsolvable) sub-job back to the master.
func (c *Client) SubmitResult(ctx context.Context, req SubmitResultRequest) error {
	resp, err := c.do(ctx, http.MethodPost, "/result", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

// Heartbeat tells the master workerID is still alive, per §4.3's
// liveness model.
func (c *Client) Heartbeat(ctx context.Context, workerID string) error {
	resp, err := c.do(ctx, http.MethodPost, "/heartbeat", map[string]string{"workerId": workerID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return &apiErr
}
