package collector

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

	"PolicyPulse/internal/dataset"
)

// DefaultFREDBaseURL is the public FRED API host.
const DefaultFREDBaseURL = "https://api.stlouisfed.org"

// FREDFetcher implements EconomicFetcher against the FRED observations API.
type FREDFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewFREDFetcher creates a fetcher with optional proxy support. FRED allows
// well under 2 requests/second for anonymous keys, so requests are paced.
func NewFREDFetcher(baseURL, apiKey, proxyURL string) *FREDFetcher {
	if baseURL == "" {
		baseURL = DefaultFREDBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &FREDFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

func (f *FREDFetcher) Name() string { return "fred" }

// fredObservations is the response shape of /fred/series/observations.
type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// FetchSeries downloads one series and returns it as a frame with a single
// column. Missing observations (value ".") are dropped.
func (f *FREDFetcher) FetchSeries(ctx context.Context, seriesID, column string, start, end time.Time) (*dataset.Frame, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.APIKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format("2006-01-02"))
	q.Set("observation_end", end.Format("2006-01-02"))
	u := fmt.Sprintf("%s/fred/series/observations?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fred fetch %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fred read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fred %s: status %d, body: %s", seriesID, resp.StatusCode, string(body))
	}

	var obs fredObservations
	if err := json.Unmarshal(body, &obs); err != nil {
		return nil, fmt.Errorf("fred decode: %w", err)
	}
	if obs.ErrorCode != 0 {
		return nil, fmt.Errorf("fred api error %d: %s", obs.ErrorCode, obs.ErrorMessage)
	}
	if len(obs.Observations) == 0 {
		return nil, fmt.Errorf("fred %s: no observations returned", seriesID)
	}

	var dates []time.Time
	var values []float64
	for _, o := range obs.Observations {
		if o.Value == "." {
			continue
		}
		d, err := time.ParseInLocation("2006-01-02", o.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("fred %s: parse date %q: %w", seriesID, o.Date, err)
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("fred %s: parse value %q: %w", seriesID, o.Value, err)
		}
		dates = append(dates, d)
		values = append(values, v)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("fred %s: only missing observations in range", seriesID)
	}

	return dataset.FromColumn(column, dates, values)
}
