package collector

import (
	"context"
	"fmt"
	"time"

	"PolicyPulse/internal/dataset"
)

var (
	_ EconomicFetcher = (*MockEconomicFetcher)(nil)
	_ MarketFetcher   = (*MockMarketFetcher)(nil)
)

// MockEconomicFetcher returns canned frames for testing.
type MockEconomicFetcher struct {
	Series map[string]*dataset.Frame // keyed by series ID
	Err    error
}

func (m *MockEconomicFetcher) Name() string { return "mock" }

func (m *MockEconomicFetcher) FetchSeries(_ context.Context, seriesID, column string, start, end time.Time) (*dataset.Frame, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	f, ok := m.Series[seriesID]
	if !ok {
		return nil, fmt.Errorf("mock: no series %s", seriesID)
	}
	src := f.ColumnNames()[0]
	sliced := f.Slice(start, end)
	vals := sliced.Column(src)
	return dataset.FromColumn(column, sliced.Dates(), vals)
}

// MockMarketFetcher returns canned prices and fundamentals for testing.
type MockMarketFetcher struct {
	Closes       map[string]*dataset.Frame // keyed by symbol
	Fundamentals map[string]*Fundamentals  // keyed by symbol
	Err          error
}

func (m *MockMarketFetcher) Name() string { return "mock" }

func (m *MockMarketFetcher) FetchDailyCloses(_ context.Context, symbol, column string, start, end time.Time) (*dataset.Frame, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	f, ok := m.Closes[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no symbol %s", symbol)
	}
	src := f.ColumnNames()[0]
	sliced := f.Slice(start, end)
	vals := sliced.Column(src)
	return dataset.FromColumn(column, sliced.Dates(), vals)
}

func (m *MockMarketFetcher) FetchFundamentals(_ context.Context, symbol string, _, _ time.Time) (*Fundamentals, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	f, ok := m.Fundamentals[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no fundamentals for %s", symbol)
	}
	return f, nil
}
