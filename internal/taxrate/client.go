// Package taxrate предоставляет клиент для внешнего сервиса ставок НДС.
package taxrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Rate описывает ставку НДС по одной стране.
type Rate struct {
	Country     string  `json:"country"`
	RatePercent float64 `json:"ratePercent"`
}

// Update результат опроса сервиса. Changed сброшен, если сервис ответил,
// что ставка не менялась, и тогда Rate пуст.
type Update struct {
	Rate    Rate
	Changed bool
}

// RateLimitError возвращается на ответ 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tax rate service is rate limited, retry after %s", e.RetryAfter)
}

// ErrNotConfigured означает, что адрес сервиса ставок не задан.
var ErrNotConfigured = errors.New("tax rate client not configured")

// Client опрашивает сервис ставок НДС.
type Client struct {
	base       *url.URL
	httpClient *http.Client
}

// NewClient принимает адрес сервиса с протоколом или без него.
func NewClient(address string) *Client {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Client{}
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	base, err := url.Parse(address)
	if err != nil {
		return &Client{}
	}

	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchRate запрашивает ставку НДС для страны.
func (c *Client) FetchRate(ctx context.Context, country string) (Update, error) {
	if c == nil || c.base == nil {
		return Update{}, ErrNotConfigured
	}

	endpoint := c.base.JoinPath("api", "vat", country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Update{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Update{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeRate(resp)
	case http.StatusNoContent, http.StatusNotModified:
		return Update{}, nil
	case http.StatusTooManyRequests:
		return Update{}, &RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now())}
	default:
		return Update{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

func decodeRate(resp *http.Response) (Update, error) {
	var rate Rate
	if err := json.NewDecoder(resp.Body).Decode(&rate); err != nil {
		return Update{}, fmt.Errorf("decode response: %w", err)
	}
	if rate.RatePercent < 0 {
		return Update{}, fmt.Errorf("negative rate %v for %s", rate.RatePercent, rate.Country)
	}
	return Update{Rate: rate, Changed: true}, nil
}

// retryAfter понимает обе формы заголовка: число секунд и HTTP-дату.
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
