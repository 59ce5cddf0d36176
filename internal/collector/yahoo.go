package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"PolicyPulse/internal/dataset"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements MarketFetcher using Yahoo Finance public APIs.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	limiter   *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// FetchDailyCloses downloads daily closing prices over an explicit date
// range and returns them as a single-column frame. Null bars (holidays) are
// skipped; dates are normalized to UTC midnight of the exchange day.
func (f *YahooFetcher) FetchDailyCloses(ctx context.Context, symbol, column string, start, end time.Time) (*dataset.Frame, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), start.Unix(), end.AddDate(0, 0, 1).Unix())

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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo %s: no data returned", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no quote data", symbol)
	}
	quote := result.Indicators.Quote[0]

	var dates []time.Time
	var closes []float64
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c := toFloat(quote.Close[i])
		if c == 0 {
			continue // skip null bars (holidays etc.)
		}
		t := time.Unix(ts, 0).UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		dates = append(dates, day)
		closes = append(closes, c)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("yahoo %s: only null bars returned", symbol)
	}

	return dataset.FromColumn(column, dates, closes)
}

// yahooFundamentals is the response structure of the fundamentals-timeseries
// API. Each result carries one statement line keyed by its own type name.
type yahooFundamentals struct {
	Timeseries struct {
		Result []json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"timeseries"`
}

type fundamentalRow struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue *struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

const (
	typeCapex       = "annualCapitalExpenditure"
	typeAssets      = "annualTotalAssets"
	typeLiabilities = "annualTotalLiabilitiesNetMinorityInterest"
)

// FetchFundamentals downloads annual capex, total assets and total
// liabilities for one symbol.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string, start, end time.Time) (*Fundamentals, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	types := strings.Join([]string{typeCapex, typeAssets, typeLiabilities}, ",")
	sym := url.PathEscape(f.yahooSymbol(symbol))
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?symbol=%s&type=%s&period1=%d&period2=%d",
		f.BaseURL, sym, sym, types, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fundamentals fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo fundamentals read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo fundamentals %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
	}

	var payload yahooFundamentals
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("yahoo fundamentals decode: %w", err)
	}
	if payload.Timeseries.Error != nil {
		return nil, fmt.Errorf("yahoo fundamentals api error: %s", payload.Timeseries.Error.Description)
	}
	if len(payload.Timeseries.Result) == 0 {
		return nil, fmt.Errorf("yahoo fundamentals %s: no data returned", symbol)
	}

	byDate := map[string]map[string]float64{}
	for _, raw := range payload.Timeseries.Result {
		var meta struct {
			Meta struct {
				Type []string `json:"type"`
			} `json:"meta"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil || len(meta.Meta.Type) == 0 {
			continue
		}
		lineType := meta.Meta.Type[0]

		var rows map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			continue
		}
		var line []*fundamentalRow
		if err := json.Unmarshal(rows[lineType], &line); err != nil {
			continue
		}
		for _, r := range line {
			if r == nil || r.ReportedValue == nil {
				continue
			}
			if byDate[r.AsOfDate] == nil {
				byDate[r.AsOfDate] = map[string]float64{}
			}
			byDate[r.AsOfDate][lineType] = r.ReportedValue.Raw
		}
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("yahoo fundamentals %s: empty statement lines", symbol)
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &Fundamentals{Symbol: symbol}
	for _, k := range keys {
		d, err := time.ParseInLocation("2006-01-02", k, time.UTC)
		if err != nil {
			continue
		}
		vals := byDate[k]
		out.Dates = append(out.Dates, d)
		out.Capex = append(out.Capex, vals[typeCapex])
		out.TotalAssets = append(out.TotalAssets, vals[typeAssets])
		out.TotalLiabilities = append(out.TotalLiabilities, vals[typeLiabilities])
	}
	return out, nil
}
