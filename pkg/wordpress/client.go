package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dthomason/wpsearch/pkg/errors"
	"github.com/dthomason/wpsearch/pkg/logging"
)

const (
	// MaxPerPage is the upstream hard cap on per_page.
	MaxPerPage = 100

	// minRequestInterval is the minimum spacing between outbound requests.
	minRequestInterval = 100 * time.Millisecond

	defaultTimeout = 30 * time.Second
)

// Client talks to the WordPress content API. All relevance judgment is
// deferred to the caller: FetchAll returns whatever the upstream returns,
// normalized and truncated, with no keyword filtering.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// ClientOptions configure optional client behavior.
type ClientOptions struct {
	Timeout time.Duration
	Logger  *logging.Logger
}

// NewClient creates a WordPress content client with basic auth credentials.
func NewClient(baseURL, username, password string, opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// Burst of 1: consecutive requests are always at least
		// minRequestInterval apart, shared across all callers.
		limiter: rate.NewLimiter(rate.Every(minRequestInterval), 1),
		logger:  opts.Logger,
	}
}

// FetchAll retrieves up to maxResults normalized records. The upstream is
// asked for min(maxResults, 100) items and the normalized sequence is
// truncated to maxResults before returning.
func (c *Client) FetchAll(ctx context.Context, maxResults int) ([]ContentRecord, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	perPage := maxResults
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	params := url.Values{}
	params.Set("content_format", "plain")
	params.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, c.baseURL, params)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalDecode, "invalid response from WordPress API")
	}

	records := make([]ContentRecord, 0, len(items))
	for _, item := range items {
		records = append(records, normalizeItem(item))
	}
	if len(records) > maxResults {
		records = records[:maxResults]
	}

	c.logger.Debug(logging.CategoryWordPress, "fetch_all", fmt.Sprintf("fetched %d records", len(records)),
		map[string]any{"per_page": perPage})
	return records, nil
}

// FetchByID retrieves one record by identifier. This is a best-effort
// lookup: any failure reports absence, never an error.
func (c *Client) FetchByID(ctx context.Context, id int) (*ContentRecord, bool) {
	body, err := c.get(ctx, fmt.Sprintf("%s/%d", c.baseURL, id), nil)
	if err != nil {
		c.logger.Debug(logging.CategoryWordPress, "fetch_by_id_miss", err.Error(), map[string]any{"id": id})
		return nil, false
	}

	var item map[string]any
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, false
	}

	record := normalizeItem(item)
	return &record, true
}

// TestConnectivity issues a minimal request and reports whether it
// succeeded. Never returns an error.
func (c *Client) TestConnectivity(ctx context.Context) bool {
	params := url.Values{}
	params.Set("per_page", "1")

	_, err := c.get(ctx, c.baseURL, params)
	return err == nil
}

// get performs one throttled, authenticated GET and returns the body.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "rate limit wait")
	}

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "creating request")
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "WordPress API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrCodeRetrievalStatus, "WordPress API request failed").
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRetrievalFailed, "reading response body")
	}
	return body, nil
}
