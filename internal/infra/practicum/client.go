// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Client fetches homework statuses from the Practicum review API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewClient creates a client for the given endpoint. timeout bounds every request.
func NewClient(endpoint, token string, timeout time.Duration, logger *logrus.Entry) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if token == "" {
		return nil, fmt.Errorf("practicum token is required")
	}

	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// GetAPIAnswer requests statuses changed since fromDate.
//
// A non-200 answer yields an upstream status error and a transport failure a
// network error, both classified in package homework. A 200 answer whose body
// is not a JSON object, or is larger than 1MB, is logged and returned as
// (nil, nil): there is no data this cycle. Context cancellation is returned unwrapped.
func (c *Client) GetAPIAnswer(ctx context.Context, fromDate int64) (homework.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	q := req.URL.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if err == nil {
			resp.Body.Close()
		}
		return nil, ctxErr
	}
	if err != nil {
		c.logger.WithError(err).Error("Request to the review API failed")
		return nil, homework.NewNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.logger.WithField("from_date", fromDate).Debug("Запрос отправлен")

	if resp.StatusCode != http.StatusOK {
		statusErr := homework.NewUpstreamStatusError(resp.StatusCode)
		c.logger.WithField("status_code", resp.StatusCode).Error(statusErr.Error())
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		c.logger.WithError(err).Error("Reading the review API response failed")
		return nil, homework.NewNetworkError(err)
	}
	if len(body) > maxResponseBodySize {
		c.logger.WithField("limit_bytes", maxResponseBodySize).Error("Review API answer is too large, ignored")
		return nil, nil
	}

	var payload homework.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.WithError(err).Error("Review API answered with invalid JSON")
		return nil, nil
	}
	return payload, nil
}
