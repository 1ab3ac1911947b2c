package fal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"satura-server/modules/common/metrics"
)

// Queue statuses reported by the fal queue API
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

const DefaultQueueURL = "https://queue.fal.run"

// ErrMissingKey is returned when the client has no API key.
var ErrMissingKey = errors.New("FAL_KEY is not configured")

// UpstreamError carries a non-2xx fal response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("fal API error: status %d", e.StatusCode)
}

// Options configures a Client.
type Options struct {
	Key          string
	QueueURL     string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to fal.ai synchronous endpoints and the fal queue.
type Client struct {
	httpClient   *resty.Client
	key          string
	queueURL     string
	pollInterval time.Duration
}

// QueueSubmission is the fal queue response to a job submission.
type QueueSubmission struct {
	RequestID   string `json:"request_id"`
	ResponseURL string `json:"response_url"`
	StatusURL   string `json:"status_url"`
	CancelURL   string `json:"cancel_url"`
}

// QueueStatus is a fal queue status poll response.
type QueueStatus struct {
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
}

// Result is the outcome of a completed queue job.
type Result struct {
	RequestID string
	Data      json.RawMessage
}

// NewClient creates a fal client.
func NewClient(opts Options) *Client {
	queueURL := strings.TrimRight(opts.QueueURL, "/")
	if queueURL == "" {
		queueURL = DefaultQueueURL
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	httpClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	return &Client{
		httpClient:   httpClient,
		key:          strings.TrimSpace(opts.Key),
		queueURL:     queueURL,
		pollInterval: pollInterval,
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.key != ""
}

// Run posts input to a synchronous fal endpoint and returns the raw response
// body. A non-2xx response is returned as *UpstreamError.
func (c *Client) Run(ctx context.Context, endpoint string, input interface{}) ([]byte, error) {
	if !c.HasKey() {
		return nil, ErrMissingKey
	}

	start := time.Now()
	resp, err := c.request(ctx).
		SetBody(input).
		Post(endpoint)
	if err != nil {
		metrics.RecordUpstream("fal", "run", err, start)
		return nil, fmt.Errorf("fal request failed: %w", err)
	}
	if resp.IsError() {
		upstreamErr := &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
		metrics.RecordUpstream("fal", "run", upstreamErr, start)
		return nil, upstreamErr
	}

	metrics.RecordUpstream("fal", "run", nil, start)
	return resp.Body(), nil
}

// Subscribe submits a job to the fal queue for model and blocks until it
// completes, fails, or ctx is done.
func (c *Client) Subscribe(ctx context.Context, model string, input interface{}) (*Result, error) {
	if !c.HasKey() {
		return nil, ErrMissingKey
	}

	start := time.Now()
	result, err := c.subscribe(ctx, model, input)
	metrics.RecordUpstream("fal", "subscribe", err, start)
	return result, err
}

func (c *Client) subscribe(ctx context.Context, model string, input interface{}) (*Result, error) {
	submission, err := c.Submit(ctx, model, input)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("model", model).
		Str("request_id", submission.RequestID).
		Msg("📥 [Fal] Job submitted to queue")

	if err := c.waitForCompletion(ctx, submission); err != nil {
		return nil, err
	}

	data, err := c.getJSON(ctx, c.responseURL(model, submission))
	if err != nil {
		return nil, fmt.Errorf("fetch fal result: %w", err)
	}

	log.Info().
		Str("model", model).
		Str("request_id", submission.RequestID).
		Msg("✅ [Fal] Job completed")

	return &Result{RequestID: submission.RequestID, Data: data}, nil
}

// Submit enqueues a job without waiting for it.
func (c *Client) Submit(ctx context.Context, model string, input interface{}) (*QueueSubmission, error) {
	if !c.HasKey() {
		return nil, ErrMissingKey
	}

	resp, err := c.request(ctx).
		SetBody(input).
		Post(c.queueURL + "/" + strings.Trim(model, "/"))
	if err != nil {
		return nil, fmt.Errorf("fal queue submit failed: %w", err)
	}
	if resp.IsError() {
		return nil, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var submission QueueSubmission
	if err := json.Unmarshal(resp.Body(), &submission); err != nil {
		return nil, fmt.Errorf("parse fal queue submission: %w", err)
	}
	if submission.RequestID == "" {
		return nil, fmt.Errorf("fal queue submission returned no request_id")
	}
	return &submission, nil
}

func (c *Client) waitForCompletion(ctx context.Context, submission *QueueSubmission) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	statusURL := submission.StatusURL
	if statusURL == "" {
		return fmt.Errorf("fal queue submission returned no status_url")
	}

	for {
		body, err := c.getJSON(ctx, statusURL)
		if err != nil {
			return fmt.Errorf("poll fal status: %w", err)
		}

		var status QueueStatus
		if err := json.Unmarshal(body, &status); err != nil {
			return fmt.Errorf("parse fal status: %w", err)
		}

		switch status.Status {
		case StatusCompleted:
			return nil
		case StatusInQueue, StatusInProgress:
			log.Debug().
				Str("request_id", submission.RequestID).
				Str("status", status.Status).
				Msg("[Fal] Waiting for job")
		default:
			return fmt.Errorf("unexpected fal queue status %q", status.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) responseURL(model string, submission *QueueSubmission) string {
	if submission.ResponseURL != "" {
		return submission.ResponseURL
	}
	return fmt.Sprintf("%s/%s/requests/%s", c.queueURL, strings.Trim(model, "/"), submission.RequestID)
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.request(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return resp.Body(), nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Key "+c.key)
}
