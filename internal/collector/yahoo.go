package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"MarketWatcher/internal/model"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API. It is a
// fallback source for when the exchange endpoint is unreachable.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	Timeout   time.Duration
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
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
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Timeout: timeout,
		SymbolMap: map[string]string{
			"BTCUSDT": "BTC-USD",
			"ETHUSDT": "ETH-USD",
			"SOLUSDT": "SOL-USD",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if base, ok := strings.CutSuffix(symbol, "USDT"); ok && base != "" {
		return base + "-USD"
	}
	return symbol
}

// FetchPrice reads chart.result[0].meta.regularMarketPrice. The raw JSON
// number text is parsed straight into a decimal.
func (f *YahooFetcher) FetchPrice(ctx context.Context, symbol string) (*model.PriceSample, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	raw := gjson.GetBytes(body, "chart.result.0.meta.regularMarketPrice")
	if !raw.Exists() || raw.Type != gjson.Number {
		return nil, errors.New("yahoo: no price data")
	}
	price, err := decimal.NewFromString(raw.Raw)
	if err != nil {
		return nil, fmt.Errorf("yahoo parse price %q: %w", raw.Raw, err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("yahoo: non-positive price %s for %s", price, symbol)
	}
	return &model.PriceSample{Symbol: symbol, Price: price, ObservedAt: time.Now().UTC()}, nil
}
