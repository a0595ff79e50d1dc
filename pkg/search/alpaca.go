package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// MarketBasket is the fixed symbol set the assistant quotes: two REIT index
// funds as a real-estate sentiment proxy plus SPY as the broad-market anchor.
var MarketBasket = []string{"VNQ", "IYR", "SPY"}

const barsCacheKey = "latest_bars"

// Quote is the latest bar for one symbol.
type Quote struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// AlpacaClient fetches latest bar data from the Alpaca market data API.
// Responses are cached briefly; the feed is rate limited and quotes a minute
// old are fine for conversational context.
type AlpacaClient struct {
	KeyID   string
	Secret  string
	BaseURL string
	Client  *http.Client
	cache   *cache.Cache
}

func NewAlpacaClient(keyID, secret string) *AlpacaClient {
	return &AlpacaClient{
		KeyID:   keyID,
		Secret:  secret,
		BaseURL: "https://data.alpaca.markets",
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: cache.New(60*time.Second, 5*time.Minute),
	}
}

type alpacaBar struct {
	Close  float64 `json:"c"`
	Volume int64   `json:"v"`
}

type alpacaBarsResponse struct {
	Bars map[string]alpacaBar `json:"bars"`
}

// LatestBars returns quotes for the fixed basket, in basket order. Symbols
// missing from the response are skipped.
func (a *AlpacaClient) LatestBars(ctx context.Context) ([]Quote, error) {
	if cached, found := a.cache.Get(barsCacheKey); found {
		return cached.([]Quote), nil
	}

	url := fmt.Sprintf("%s/v2/stocks/bars/latest?symbols=%s", a.BaseURL, strings.Join(MarketBasket, ","))
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", a.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", a.Secret)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpaca request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpaca error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var barsResp alpacaBarsResponse
	if err := json.Unmarshal(bodyBytes, &barsResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	quotes := make([]Quote, 0, len(MarketBasket))
	for _, symbol := range MarketBasket {
		bar, ok := barsResp.Bars[symbol]
		if !ok {
			continue
		}
		quotes = append(quotes, Quote{
			Symbol: symbol,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	a.cache.Set(barsCacheKey, quotes, cache.DefaultExpiration)
	return quotes, nil
}
