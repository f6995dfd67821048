package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"MarketWatcher/internal/model"
)

const (
	DefaultBinanceURL   = "https://api.binance.com"
	DefaultFetchTimeout = 10 * time.Second

	maxBodySize = 1 << 20
)

// BinanceFetcher implements Fetcher using the Binance spot ticker endpoint.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	Limiter *rate.Limiter
}

// NewBinanceFetcher creates a fetcher with optional proxy support. timeout
// bounds each request; rps limits outgoing requests per second (0 disables).
func NewBinanceFetcher(baseURL, proxyURL string, timeout time.Duration, rps float64) *BinanceFetcher {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Timeout: timeout,
		Limiter: limiter,
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// tickerPrice is the response of /api/v3/ticker/price. Price arrives as a
// decimal string and is never routed through float64.
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (f *BinanceFetcher) FetchPrice(ctx context.Context, symbol string) (*model.PriceSample, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("binance read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if msg := gjson.GetBytes(body, "msg"); msg.Exists() {
			return nil, fmt.Errorf("binance: status %d, code %d: %s",
				resp.StatusCode, gjson.GetBytes(body, "code").Int(), msg.String())
		}
		return nil, fmt.Errorf("binance: status %d, body: %s", resp.StatusCode, string(body))
	}

	var ticker tickerPrice
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("binance decode: %w", err)
	}
	if !strings.EqualFold(ticker.Symbol, symbol) {
		return nil, fmt.Errorf("binance: response symbol %q does not match %q", ticker.Symbol, symbol)
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return nil, fmt.Errorf("binance: invalid price %q: %w", ticker.Price, err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("binance: non-positive price %s for %s", ticker.Price, symbol)
	}

	return &model.PriceSample{
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}, nil
}
