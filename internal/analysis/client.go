package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/pokerlens/pokerlens/internal/config"
	"github.com/pokerlens/pokerlens/internal/resilience"
	"github.com/pokerlens/pokerlens/internal/types"
)

// ErrUnavailable is returned while the coaching circuit breaker is open.
var ErrUnavailable = errors.New("coaching service unavailable")

// Client calls the external coaching service. Requests are rate limited and
// wrapped in a circuit breaker so a flapping coach cannot stall imports.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// NewClient creates a coaching client from configuration.
func NewClient(cfg config.CoachConfig) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "PokerLens/1.0").
		SetTransport(retryClient.HTTPClient.Transport)
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	breaker := resilience.New("coach", resilience.Options{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		http:    httpClient,
		limiter: limiter,
		breaker: breaker,
	}
}

// Analyze submits a statistics report and returns the coach's commentary.
func (c *Client) Analyze(ctx context.Context, report *types.Report) (*types.Coaching, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(report).
			SetResult(&types.Coaching{}).
			Post("/v1/analyze")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("coach returned %s", resp.Status())
		}
		return resp.Result().(*types.Coaching), nil
	})
	if errors.Is(err, resilience.ErrOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	return result.(*types.Coaching), nil
}

// BreakerState exposes the circuit breaker state for the health endpoint.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
