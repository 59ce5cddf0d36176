package analysis

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PolicyPulse/internal/chart"
	"PolicyPulse/internal/collector"
	"PolicyPulse/internal/config"
	"PolicyPulse/internal/dataset"
	"PolicyPulse/internal/recorder"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Sample.Start = "2022-01-01"
	cfg.Sample.End = "2022-06-30"
	return cfg
}

func daily(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func frameOf(t *testing.T, name string, dates []time.Time, values []float64) *dataset.Frame {
	t.Helper()
	f, err := dataset.FromColumn(name, dates, values)
	require.NoError(t, err)
	return f
}

// shockStudyMocks builds a synthetic half year with a single 25bp hike on
// the 2022-03-16 announcement and sub-threshold noise elsewhere.
func shockStudyMocks(t *testing.T) (*collector.MockEconomicFetcher, *collector.MockMarketFetcher) {
	t.Helper()
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 181
	dates := daily(start, n)
	hike := time.Date(2022, 3, 16, 0, 0, 0, 0, time.UTC)

	dff := make([]float64, n)
	level := 0.08
	for i, d := range dates {
		if d.Equal(hike) {
			level += 0.25
		}
		// sub-threshold wiggle so daily changes are nonzero
		dff[i] = level + 0.004*math.Sin(float64(i))
	}

	var m1Dates []time.Time
	var m1Vals []float64
	for m := 0; m < 6; m++ {
		m1Dates = append(m1Dates, time.Date(2022, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC))
		m1Vals = append(m1Vals, 20500+float64(m)*85)
	}

	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 4500 * (1 + 0.02*math.Sin(float64(i)/7))
	}

	econ := &collector.MockEconomicFetcher{Series: map[string]*dataset.Frame{
		"DFF":  frameOf(t, "Fed_Funds", dates, dff),
		"M1SL": frameOf(t, "M1", m1Dates, m1Vals),
	}}
	mkt := &collector.MockMarketFetcher{Closes: map[string]*dataset.Frame{
		"^GSPC": frameOf(t, "SP500_Close", dates, closes),
	}}
	return econ, mkt
}

func TestRunShocks_EndToEnd(t *testing.T) {
	econ, mkt := shockStudyMocks(t)
	cfg := testConfig(t)
	outDir := t.TempDir()

	r := NewRunner(
		collector.New(econ, mkt, t.TempDir()),
		chart.NewRenderer(outDir),
		recorder.NewNoopRecorder(),
		cfg,
	)
	var console bytes.Buffer
	r.Out = &console

	result, err := r.RunShocks(context.Background(), true)
	require.NoError(t, err)

	require.NotNil(t, result.LatestShock)
	assert.Equal(t, "Hike", result.LatestShock.Type)
	assert.Equal(t, time.Date(2022, 3, 16, 0, 0, 0, 0, time.UTC), result.LatestShock.Date)
	assert.InDelta(t, 25, result.LatestShock.RateChangeBP, 2)

	assert.NotEmpty(t, result.Windows)

	out := console.String()
	assert.Contains(t, out, "Average reaction by window offset")
	assert.Contains(t, out, "LaggedReturn")
	assert.Contains(t, out, "RateChangeBP")
	assert.Contains(t, out, "Scenario")

	for _, name := range []string{"average_reaction.html", "reaction_by_type.html"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestRunShocks_UsesCacheWhenNotRefreshing(t *testing.T) {
	econ, mkt := shockStudyMocks(t)
	cfg := testConfig(t)
	dataDir := t.TempDir()

	r := NewRunner(
		collector.New(econ, mkt, dataDir),
		chart.NewRenderer(t.TempDir()),
		recorder.NewNoopRecorder(),
		cfg,
	)
	r.Out = &bytes.Buffer{}

	_, err := r.RunShocks(context.Background(), true)
	require.NoError(t, err)

	// Break the upstreams: a cached run must still work.
	econ.Err = assert.AnError
	mkt.Err = assert.AnError
	_, err = r.RunShocks(context.Background(), false)
	require.NoError(t, err)

	// A refresh must hit the broken upstreams and fail.
	_, err = r.RunShocks(context.Background(), true)
	require.Error(t, err)
}

func TestRunPolicy_EndToEnd(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 181
	dates := daily(start, n)

	wave := func(base, amp, freq float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = base + amp*math.Sin(float64(i)/freq)
		}
		return out
	}

	econ := &collector.MockEconomicFetcher{Series: map[string]*dataset.Frame{
		"T10Y2Y":          frameOf(t, "US_Spread_10Y2Y", dates, wave(0.3, 0.2, 11)),
		"IR3TIB01GBM156N": frameOf(t, "UK_3M_Rate", dates, wave(0.9, 0.1, 13)),
		"IRLTLT01GBM156N": frameOf(t, "UK_10Y_Rate", dates, wave(1.5, 0.3, 17)),
		"FEDFUNDS":        frameOf(t, "Fed_Funds", dates, wave(0.2, 0.05, 23)),
	}}
	mkt := &collector.MockMarketFetcher{Closes: map[string]*dataset.Frame{
		"AGG":    frameOf(t, "US_AGG_Close", dates, wave(100, 3, 19)),
		"IGLT.L": frameOf(t, "UK_Gilt_Close", dates, wave(95, 2.5, 29)),
	}}

	outDir := t.TempDir()
	r := NewRunner(
		collector.New(econ, mkt, t.TempDir()),
		chart.NewRenderer(outDir),
		recorder.NewNoopRecorder(),
		testConfig(t),
	)
	var console bytes.Buffer
	r.Out = &console

	require.NoError(t, r.RunPolicy(context.Background(), true))

	out := console.String()
	assert.Contains(t, out, "US_AGG_Return")
	assert.Contains(t, out, "UK_Spread_Change")
	assert.FileExists(t, filepath.Join(outDir, "yield_curves.html"))
	assert.FileExists(t, filepath.Join(outDir, "cumulative_comparison.html"))
}

func TestRunCapex_EndToEnd(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	var qDates []time.Time
	for q := 0; q < 20; q++ {
		qDates = append(qDates, start.AddDate(0, q*3, 0))
	}
	nq := len(qDates)

	fed := make([]float64, nq)
	gdp := make([]float64, nq)
	for i := range qDates {
		fed[i] = 0.1 + 0.3*float64(i%8)
		gdp[i] = 19000 * math.Pow(1.006, float64(i)) * (1 + 0.01*math.Sin(float64(i)/3))
	}

	annual := func(base, growth float64) ([]time.Time, []float64) {
		var ds []time.Time
		var vs []float64
		for y := 0; y < 5; y++ {
			ds = append(ds, time.Date(2019+y, 9, 30, 0, 0, 0, 0, time.UTC))
			vs = append(vs, base*math.Pow(1+growth, float64(y))*(1+0.04*math.Sin(float64(y))))
		}
		return ds, vs
	}

	fundFor := func(sym string, capexBase, capexGrowth float64) *collector.Fundamentals {
		ds, capex := annual(capexBase, capexGrowth)
		_, assets := annual(capexBase*30, 0.05)
		_, liabilities := annual(capexBase*18, 0.07)
		return &collector.Fundamentals{
			Symbol: sym, Dates: ds,
			Capex: capex, TotalAssets: assets, TotalLiabilities: liabilities,
		}
	}

	closesFor := func(col string, base float64) *dataset.Frame {
		vals := make([]float64, nq)
		for i := range vals {
			vals[i] = base * math.Pow(1.02, float64(i))
		}
		return frameOf(t, col, qDates, vals)
	}

	econ := &collector.MockEconomicFetcher{Series: map[string]*dataset.Frame{
		"FEDFUNDS": frameOf(t, "Fed_Funds", qDates, fed),
		"GDPC1":    frameOf(t, "Real_GDP", qDates, gdp),
	}}
	mkt := &collector.MockMarketFetcher{
		Closes: map[string]*dataset.Frame{
			"AAPL": closesFor("AAPL_Close", 130),
			"MSFT": closesFor("MSFT_Close", 240),
		},
		Fundamentals: map[string]*collector.Fundamentals{
			"AAPL": fundFor("AAPL", -1.1e10, 0.08),
			"MSFT": fundFor("MSFT", -2.0e10, 0.15),
		},
	}

	cfg := testConfig(t)
	cfg.Sample.Start = "2019-01-01"
	cfg.Sample.End = "2023-12-31"

	outDir := t.TempDir()
	r := NewRunner(
		collector.New(econ, mkt, t.TempDir()),
		chart.NewRenderer(outDir),
		recorder.NewNoopRecorder(),
		cfg,
	)
	var console bytes.Buffer
	r.Out = &console

	require.NoError(t, r.RunCapex(context.Background(), true))

	out := console.String()
	assert.Contains(t, out, "Capex_Growth")
	assert.Contains(t, out, "cluster-robust")
	assert.Contains(t, out, "Ticker_MSFT")
	assert.FileExists(t, filepath.Join(outDir, "capex_growth.html"))
}
