package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client errors.
var (
	ErrMissingAccessToken = errors.New("fitness: access token is required")
	ErrMissingBaseURL     = errors.New("fitness: base URL is required")
	ErrUnauthorized       = errors.New("fitness: unauthorized, check access token")
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("fitness: API returned status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig configures the provider API client.
type ClientConfig struct {
	// BaseURL of the provider API, without a trailing slash.
	BaseURL string

	// AccessToken is the bearer token for API requests.
	AccessToken string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// PerPage is the page size for feed requests. The provider caps
	// pages at 200 records.
	PerPage int

	// RateLimiter configures the local request budget.
	RateLimiter RateLimiterConfig

	// Location interprets the provider's local-time stamps.
	Location *time.Location

	Logger *slog.Logger
}

// Client talks to the fitness provider API. It implements
// activity.Provider for the sync job: rankings and statistics never
// call the provider directly, they read the local mirror.
type Client struct {
	baseURL     string
	accessToken string
	perPage     int

	httpClient  *http.Client
	rateLimiter *RateLimiter
	mapper      *Mapper
	logger      *slog.Logger
}

const (
	defaultTimeout = 30 * time.Second
	maxPerPage     = 200
	maxPages       = 50
)

// NewClient creates a provider API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if config.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.PerPage <= 0 || config.PerPage > maxPerPage {
		config.PerPage = maxPerPage
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		baseURL:     config.BaseURL,
		accessToken: config.AccessToken,
		perPage:     config.PerPage,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RateLimiter),
		mapper:      NewMapper(config.Location),
		logger:      config.Logger,
	}, nil
}

// ListByPeriod fetches all activities of the group's athletes whose
// start falls inside the half-open period. The feed is paginated; pages
// are fetched until a short page arrives. Records outside the period
// slip into edge pages on the provider side and are filtered here.
func (c *Client) ListByPeriod(ctx context.Context, groupID shared.GroupID, period shared.Period) ([]activity.Activity, error) {
	path := fmt.Sprintf("/groups/%d/activities", groupID.Int64())

	var all []activity.Activity
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("after", strconv.FormatInt(period.FirstDay.Unix(), 10))
		params.Set("before", strconv.FormatInt(period.LastDay.Unix(), 10))
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(c.perPage))

		var dtos []ActivityDTO
		if err := c.doRequest(ctx, path+"?"+params.Encode(), &dtos); err != nil {
			return nil, fmt.Errorf("list activities page %d: %w", page, err)
		}

		activities, skipped := c.mapper.ActivitiesFromDTOs(dtos)
		if skipped > 0 {
			c.logger.Warn("skipped malformed activity records",
				"group_id", groupID.Int64(), "page", page, "skipped", skipped)
		}
		for _, act := range activities {
			if act.StartLocal.Before(period.FirstDay) || !act.StartLocal.Before(period.LastDay) {
				continue
			}
			all = append(all, act)
		}

		if len(dtos) < c.perPage {
			return all, nil
		}
	}

	return all, nil
}

var _ activity.Provider = (*Client)(nil)

// doRequest executes one GET request against the provider API and
// decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    "provider rate limit hit",
		}
	case resp.StatusCode != http.StatusOK:
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseRetryAfter reads a Retry-After header value in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
