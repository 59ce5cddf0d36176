package collector

import (
	"context"
	"time"

	"PolicyPulse/internal/dataset"
)

// EconomicFetcher retrieves one macro series as a single-column frame.
type EconomicFetcher interface {
	FetchSeries(ctx context.Context, seriesID, column string, start, end time.Time) (*dataset.Frame, error)
	Name() string
}

// Fundamentals holds the annual statement lines a capex panel needs.
type Fundamentals struct {
	Symbol           string
	Dates            []time.Time
	Capex            []float64
	TotalAssets      []float64
	TotalLiabilities []float64
}

// MarketFetcher retrieves market prices and company fundamentals.
type MarketFetcher interface {
	FetchDailyCloses(ctx context.Context, symbol, column string, start, end time.Time) (*dataset.Frame, error)
	FetchFundamentals(ctx context.Context, symbol string, start, end time.Time) (*Fundamentals, error)
	Name() string
}
