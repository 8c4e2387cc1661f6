// Package schwab is a thin hand-written client for the Schwab trader and
// market-data APIs, authenticated through an oauth2.TokenSource.
package schwab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Schwab API host.
const DefaultBaseURL = "https://api.schwabapi.com"

// Client issues authenticated read calls against the Schwab API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests, mock servers).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTransport sets a custom base transport for API requests.
func WithTransport(base http.RoundTripper, ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.httpClient.Transport = &oauth2.Transport{Source: ts, Base: base}
	}
}

// New creates a Client whose requests carry bearer credentials minted by ts.
func New(ts oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: ts},
			Timeout:   30 * time.Second,
		},
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quotes fetches quotes for the given symbols in one call.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols given")
	}
	q := url.Values{"symbols": {strings.Join(symbols, ",")}}

	var raw map[string]quoteEnvelope
	if err := c.getJSON(ctx, "/marketdata/v1/quotes", q, &raw); err != nil {
		return nil, err
	}

	quotes := make(map[string]Quote, len(raw))
	for symbol, env := range raw {
		quotes[symbol] = Quote{
			Symbol:           symbol,
			Last:             env.Quote.LastPrice,
			Close:            env.Quote.ClosePrice,
			NetChange:        env.Quote.NetChange,
			NetPercentChange: env.Quote.NetPercentChange,
			TotalVolume:      env.Quote.TotalVolume,
		}
	}
	return quotes, nil
}

// Quote fetches a single symbol's quote.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	quotes, err := c.Quotes(ctx, []string{symbol})
	if err != nil {
		return Quote{}, err
	}
	quote, ok := quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("no quote returned for %s", symbol)
	}
	return quote, nil
}

// Accounts fetches all linked accounts with their positions.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	q := url.Values{"fields": {"positions"}}

	var raw []accountEnvelope
	if err := c.getJSON(ctx, "/trader/v1/accounts", q, &raw); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(raw))
	for _, env := range raw {
		sa := env.SecuritiesAccount
		account := Account{
			AccountNumber:    sa.AccountNumber,
			Type:             sa.Type,
			LiquidationValue: sa.CurrentBalances.LiquidationValue,
		}
		for _, p := range sa.Positions {
			quantity := p.LongQuantity.Sub(p.ShortQuantity)
			account.Positions = append(account.Positions, Position{
				Symbol:        p.Instrument.Symbol,
				AssetType:     p.Instrument.AssetType,
				Quantity:      quantity,
				MarketValue:   p.MarketValue,
				DayProfitLoss: p.CurrentDayProfitLoss,
			})
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// PriceHistory fetches daily candles for the trailing number of days.
func (c *Client) PriceHistory(ctx context.Context, symbol string, days int) ([]Candle, error) {
	if days <= 0 {
		days = 365
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	q := url.Values{
		"symbol":        {symbol},
		"periodType":    {"year"},
		"frequencyType": {"daily"},
		"frequency":     {"1"},
		"startDate":     {strconv.FormatInt(start.UnixMilli(), 10)},
		"endDate":       {strconv.FormatInt(end.UnixMilli(), 10)},
	}

	var raw priceHistory
	if err := c.getJSON(ctx, "/marketdata/v1/pricehistory", q, &raw); err != nil {
		return nil, err
	}
	if raw.Empty || len(raw.Candles) == 0 {
		return nil, fmt.Errorf("no price history returned for %s", symbol)
	}
	return raw.Candles, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}
