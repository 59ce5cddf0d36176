package collector

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"PolicyPulse/internal/dataset"
)

// Column names shared between the builders and the analysis layer.
const (
	ColFedFunds    = "Fed_Funds"
	ColM1          = "M1"
	ColSP500Close  = "SP500_Close"
	ColSP500Return = "SP500_Return"
	ColRateChange  = "Rate_Change"

	ColUSSpread     = "US_Spread_10Y2Y"
	ColUKShortRate  = "UK_3M_Rate"
	ColUKLongRate   = "UK_10Y_Rate"
	ColUKSpread     = "UK_Spread_10Y3M"
	ColUSBondClose  = "US_AGG_Close"
	ColUKBondClose  = "UK_Gilt_Close"
	ColUSBondReturn = "US_AGG_Return"
	ColUKBondReturn = "UK_Gilt_Return"

	ColRealGDP = "Real_GDP"
)

// FRED series identifiers used by the builders.
const (
	seriesFedFunds    = "DFF"
	seriesM1          = "M1SL"
	seriesUSSpread    = "T10Y2Y"
	seriesUKShortRate = "IR3TIB01GBM156N"
	seriesUKLongRate  = "IRLTLT01GBM156N"
	seriesFedFundsM   = "FEDFUNDS"
	seriesRealGDP     = "GDPC1"
)

// Market symbols used by the builders.
const (
	symbolSP500  = "^GSPC"
	symbolUSBond = "AGG"
	symbolUKBond = "IGLT.L"
)

// CapexTickers is the set of large-cap issuers tracked by the capex study.
var CapexTickers = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA"}

// Collector assembles study datasets from the upstream data sources and
// caches them as CSV files under DataDir.
type Collector struct {
	FRED    EconomicFetcher
	Markets MarketFetcher
	DataDir string
}

func New(fred EconomicFetcher, markets MarketFetcher, dataDir string) *Collector {
	return &Collector{FRED: fred, Markets: markets, DataDir: dataDir}
}

func (c *Collector) cachePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// LoadCached reads a previously built dataset from the CSV cache.
func (c *Collector) LoadCached(name string) (*dataset.Frame, error) {
	return dataset.ReadFile(c.cachePath(name))
}

func (c *Collector) save(name string, f *dataset.Frame) error {
	path := c.cachePath(name)
	if err := f.WriteFile(path); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	log.Printf("[INFO] Collector: saved %s (%d rows)", path, f.Len())
	return nil
}

// BuildShocksDataset joins the daily fed funds rate, M1 money stock and
// S&P 500 closes into a trading-day frame with return and rate-change
// columns. The first row of each derived column is NaN and gets dropped.
func (c *Collector) BuildShocksDataset(ctx context.Context, start, end time.Time) (*dataset.Frame, error) {
	fedFunds, err := c.FRED.FetchSeries(ctx, seriesFedFunds, ColFedFunds, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesFedFunds, err)
	}
	m1, err := c.FRED.FetchSeries(ctx, seriesM1, ColM1, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesM1, err)
	}
	sp500, err := c.Markets.FetchDailyCloses(ctx, symbolSP500, ColSP500Close, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbolSP500, err)
	}

	joined := fedFunds.Join(m1).Join(sp500).FFill()

	// Keep trading days only: rows where the index actually closed.
	frame := joined.Reindex(sp500.Dates())

	frame.SetColumn(ColSP500Return, dataset.PctChange(frame.Column(ColSP500Close)))
	frame.SetColumn(ColRateChange, dataset.Diff(frame.Column(ColFedFunds)))
	frame = frame.DropNaN(ColSP500Return, ColRateChange, ColM1)

	if frame.Len() == 0 {
		return nil, fmt.Errorf("shocks dataset: no overlapping observations")
	}
	if err := c.save("shocks_dataset.csv", frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// BuildPolicyDataset joins US and UK yield-curve spreads with bond index
// closes for the transmission study.
func (c *Collector) BuildPolicyDataset(ctx context.Context, start, end time.Time) (*dataset.Frame, error) {
	usSpread, err := c.FRED.FetchSeries(ctx, seriesUSSpread, ColUSSpread, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesUSSpread, err)
	}
	ukShort, err := c.FRED.FetchSeries(ctx, seriesUKShortRate, ColUKShortRate, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesUKShortRate, err)
	}
	ukLong, err := c.FRED.FetchSeries(ctx, seriesUKLongRate, ColUKLongRate, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesUKLongRate, err)
	}
	fedFunds, err := c.FRED.FetchSeries(ctx, seriesFedFundsM, ColFedFunds, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesFedFundsM, err)
	}
	usBond, err := c.Markets.FetchDailyCloses(ctx, symbolUSBond, ColUSBondClose, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbolUSBond, err)
	}
	ukBond, err := c.Markets.FetchDailyCloses(ctx, symbolUKBond, ColUKBondClose, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbolUKBond, err)
	}

	joined := usSpread.Join(ukShort).Join(ukLong).Join(fedFunds).Join(usBond).Join(ukBond).FFill()
	frame := joined.Reindex(usBond.Dates())

	frame.SetColumn(ColUKSpread, dataset.Sub(frame.Column(ColUKLongRate), frame.Column(ColUKShortRate)))
	frame.SetColumn(ColUSBondReturn, dataset.PctChange(frame.Column(ColUSBondClose)))
	frame.SetColumn(ColUKBondReturn, dataset.PctChange(frame.Column(ColUKBondClose)))
	frame = frame.DropNaN(ColUSSpread, ColUKSpread, ColUSBondReturn, ColUKBondReturn)

	if frame.Len() == 0 {
		return nil, fmt.Errorf("policy dataset: no overlapping observations")
	}
	if err := c.save("policy_dataset.csv", frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// BuildCapexDataset assembles a quarterly frame with macro series plus
// per-ticker close, capex, assets and liabilities columns, one ticker at a
// time. Tickers with no fundamentals are skipped with a warning; the
// dataset errors out only when every ticker failed.
func (c *Collector) BuildCapexDataset(ctx context.Context, start, end time.Time) (*dataset.Frame, error) {
	fedFunds, err := c.FRED.FetchSeries(ctx, seriesFedFundsM, ColFedFunds, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesFedFundsM, err)
	}
	gdp, err := c.FRED.FetchSeries(ctx, seriesRealGDP, ColRealGDP, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", seriesRealGDP, err)
	}

	joined := fedFunds.Join(gdp)

	got := 0
	for _, ticker := range CapexTickers {
		closes, err := c.Markets.FetchDailyCloses(ctx, ticker, ticker+"_Close", start, end)
		if err != nil {
			log.Printf("[WARN] Collector: skip %s closes: %v", ticker, err)
			continue
		}
		fund, err := c.Markets.FetchFundamentals(ctx, ticker, start, end)
		if err != nil {
			log.Printf("[WARN] Collector: skip %s fundamentals: %v", ticker, err)
			continue
		}
		capex, err := dataset.FromColumn(ticker+"_Capex", fund.Dates, fund.Capex)
		if err != nil {
			return nil, fmt.Errorf("%s capex: %w", ticker, err)
		}
		assets, err := dataset.FromColumn(ticker+"_Assets", fund.Dates, fund.TotalAssets)
		if err != nil {
			return nil, fmt.Errorf("%s assets: %w", ticker, err)
		}
		liabilities, err := dataset.FromColumn(ticker+"_Liabilities", fund.Dates, fund.TotalLiabilities)
		if err != nil {
			return nil, fmt.Errorf("%s liabilities: %w", ticker, err)
		}
		joined = joined.Join(closes).Join(capex).Join(assets).Join(liabilities)
		got++
	}
	if got == 0 {
		return nil, fmt.Errorf("capex dataset: no ticker data available")
	}

	frame := joined.FFill().ResampleQuarterEnd()
	if frame.Len() == 0 {
		return nil, fmt.Errorf("capex dataset: no quarterly observations")
	}
	if err := c.save("capex_dataset.csv", frame); err != nil {
		return nil, err
	}
	return frame, nil
}
