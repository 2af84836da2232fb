// Package marketdata provides the market data provider client and the price
// aggregation used by portfolio valuation.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Quote is one symbol's entry in a batched quote response. Price fields are
// pointers so an absent field can be told apart from a zero price.
type Quote struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	NavPrice           *float64 `json:"navPrice"`
}

// QuoteProvider fetches quotes for a batch of symbols in a single call
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// Client is an HTTP quote provider client. One request covers the whole
// symbol batch, so the number of provider calls per valuation is bounded at
// one regardless of holding count.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// ClientConfig holds quote client configuration
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewClient creates a new quote provider client
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// quoteResponse mirrors the provider's batched quote payload
type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote     `json:"result"`
		Error  interface{} `json:"error"`
	} `json:"quoteResponse"`
}

// Quotes fetches quotes for all symbols in one batched request and returns
// them keyed by symbol. Symbols missing from the response are simply absent
// from the map.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return map[string]Quote{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("quote request cancelled: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "portfolio-service/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	quotes := make(map[string]Quote, len(raw.QuoteResponse.Result))
	for _, q := range raw.QuoteResponse.Result {
		quotes[q.Symbol] = q
	}

	return quotes, nil
}
