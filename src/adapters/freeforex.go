package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/thaiminh0911/telefilm-bot/src/metrics"
)

var (
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrRateFormat      = errors.New("unexpected exchange rate response")
)

const defaultForexURL = "https://www.freeforexapi.com/api/live"

// FreeForexProvider fetches the USD->VND rate on every call.
type FreeForexProvider struct {
	BaseURL    string
	Pairs      string // pairs requested from the feed
	Pair       string // pair whose rate is returned
	HTTPClient *http.Client
}

func NewFreeForexProvider(baseURL string, client *http.Client) *FreeForexProvider {
	if baseURL == "" {
		baseURL = defaultForexURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &FreeForexProvider{
		BaseURL:    baseURL,
		Pairs:      "USDCNH,USDVND",
		Pair:       "USDVND",
		HTTPClient: client,
	}
}

func (ff *FreeForexProvider) GetRate(ctx context.Context) (decimal.Decimal, error) {
	rate, err := ff.fetch(ctx)
	if err != nil {
		metrics.RateRequestsTotal.WithLabelValues("error").Inc()
		return decimal.Zero, err
	}
	metrics.RateRequestsTotal.WithLabelValues("ok").Inc()
	return rate, nil
}

func (ff *FreeForexProvider) fetch(ctx context.Context) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s?pairs=%s", ff.BaseURL, url.QueryEscape(ff.Pairs))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	resp, err := ff.HTTPClient.Do(httpReq)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: unexpected status code: %d", ErrRateUnavailable, resp.StatusCode)
	}

	var apiResp struct {
		Rates map[string]struct {
			Rate *decimal.Decimal `json:"rate"`
		} `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: failed to decode response: %v", ErrRateFormat, err)
	}

	pair, ok := apiResp.Rates[ff.Pair]
	if !ok || pair.Rate == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", ErrRateFormat, ff.Pair)
	}
	if !pair.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s for %s", ErrRateFormat, pair.Rate, ff.Pair)
	}

	return *pair.Rate, nil
}
