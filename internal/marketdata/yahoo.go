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

	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// YahooConfig configures the Yahoo Finance chart provider.
type YahooConfig struct {
	BaseURL string
	Limit   int
	Timeout time.Duration
}

// YahooProvider fetches one year of daily bars from the v8 chart API.
type YahooProvider struct {
	baseURL string
	limit   int
	client  *http.Client
	logger  zerolog.Logger
	now     func() time.Time
}

// NewYahooProvider creates a Yahoo Finance provider.
func NewYahooProvider(cfg YahooConfig, logger zerolog.Logger) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = models.MaxHistoryPoints
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &YahooProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limit:   cfg.Limit,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With().Str("component", "yahoo").Logger(),
		now:     time.Now,
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns up to the last 252 daily bars of the past year. Prices are
// rounded to cents and bars with a missing price are skipped.
func (p *YahooProvider) Fetch(ctx context.Context, ticker string) (models.PriceHistory, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	now := p.now()
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", now.AddDate(-1, 0, 0).Unix()))
	q.Set("period2", fmt.Sprintf("%d", now.Unix()))
	q.Set("interval", "1d")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fetchFailed(p.Name(), symbol, "building request", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fetchFailed(p.Name(), symbol, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchFailed(p.Name(), symbol, "reading body", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(p.Name(), symbol, fmt.Sprintf("'%s' is not a listed ticker", symbol))
	}
	if decodeErr == nil && chart.Chart.Error != nil {
		desc := chart.Chart.Error.Description
		if strings.Contains(strings.ToLower(chart.Chart.Error.Code+" "+desc), "not found") {
			return nil, notFound(p.Name(), symbol, desc)
		}
		return nil, fetchFailed(p.Name(), symbol, "chart error: "+desc, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fetchFailed(p.Name(), symbol, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), 200)), nil)
	}
	if decodeErr != nil {
		return nil, fetchFailed(p.Name(), symbol, "decoding chart", decodeErr)
	}

	history := p.parse(chart)
	if len(history) == 0 {
		return nil, emptySeries(p.Name(), symbol)
	}
	history = finish(history, p.limit)

	p.logger.Debug().Str("ticker", symbol).Int("points", len(history)).
		Dur("duration", time.Since(start)).Msg("Price history fetched")
	return history, nil
}

func (p *YahooProvider) parse(chart yahooChart) models.PriceHistory {
	if len(chart.Chart.Result) == 0 {
		return nil
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	history := make(models.PriceHistory, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // null bars (holidays, halted sessions)
		}
		vol, _ := at(quote.Volume, i)

		local := time.Unix(ts, 0).UTC().Add(offset)
		history = append(history, models.PricePoint{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   round2(o),
			High:   round2(h),
			Low:    round2(l),
			Close:  round2(c),
			Volume: int64(vol),
		})
	}
	return history
}

// at returns a positive value at i, or false for nulls, zeros and short arrays.
func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil || *values[i] <= 0 {
		return 0, false
	}
	return *values[i], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
