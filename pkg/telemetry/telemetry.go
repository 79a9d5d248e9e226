// Package telemetry fetches the fleet's live data from the monitoring
// backend.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/solarkiosk/pkg/common"
	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/types"
)

// LiveDataPath is the backend endpoint polled every cycle.
const LiveDataPath = "/api/live-data"

const maxBodySize = 10 << 20

var (
	// ErrTransport means no response was received.
	ErrTransport = errors.New("telemetry transport failure")
	// ErrHTTPStatus means the backend answered with a non-2xx status.
	ErrHTTPStatus = errors.New("telemetry http status")
	// ErrApplication means the backend reported an error in the payload.
	ErrApplication = errors.New("telemetry application error")
	// ErrMalformed means the body was not a JSON object.
	ErrMalformed = errors.New("telemetry malformed response")
)

// HTTPStatusError carries the status of a non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	// Message is the backend's "error" field, if the body had one.
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("telemetry returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("telemetry returned status %d", e.StatusCode)
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrHTTPStatus
}

// ApplicationError is a truthy "error" field in a 2xx response.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "telemetry reported error: " + e.Message
}

func (e *ApplicationError) Unwrap() error {
	return ErrApplication
}

// Client fetches live data.
type Client struct {
	baseURL string
	client  *http.Client
}

// Configured registers the telemetry flags and returns the client.
func Configured() *Client {
	c := &Client{}
	baseURL := lflag.String("telemetry-url", "http://localhost:5000", "Base URL of the monitoring backend serving "+LiveDataPath)
	timeout := lflag.Duration("fetch-timeout", time.Minute, "Timeout for a single live-data fetch")

	lflag.Do(func() {
		c.baseURL = strings.TrimSuffix(*baseURL, "/")
		c.client = common.HTTPClient(*timeout)
	})
	return c
}

// New returns a client for baseURL. A nil client uses common.HTTPClient with no
// timeout.
func New(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = common.HTTPClient(0)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return errors.New("telemetry-url is required")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse telemetry url (%s): %w", c.baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("telemetry url must be http or https: %s", c.baseURL)
	}
	return nil
}

// Fetch performs one live-data request. Every failure wraps one of
// ErrTransport, ErrHTTPStatus, ErrApplication or ErrMalformed.
func (c *Client) Fetch(ctx context.Context) (types.Snapshot, error) {
	u := c.baseURL + LiveDataPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("%w: failed to read body: %w", ErrTransport, err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched live data",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("took", time.Since(start)),
	)

	snap, reported, decodeErr := types.DecodeLiveData(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the backend answers 500 with {"error": "..."}
		return types.Snapshot{}, &HTTPStatusError{StatusCode: resp.StatusCode, Message: reported}
	}
	if decodeErr != nil {
		return types.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, decodeErr)
	}
	if reported != "" {
		return types.Snapshot{}, &ApplicationError{Message: reported}
	}
	return snap, nil
}
