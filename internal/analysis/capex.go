package analysis

import (
	"context"
	"fmt"
	"math"

	"PolicyPulse/internal/collector"
	"PolicyPulse/internal/dataset"
	"PolicyPulse/internal/regress"
	"PolicyPulse/internal/simulate"
)

// quartersPerYear is the lag used for year-over-year growth on the
// quarterly panel.
const quartersPerYear = 4

// RunCapex executes the corporate investment study: a quarterly panel of
// large-cap capex growth against the policy rate, with ticker fixed effects
// and ticker-clustered standard errors.
func (r *Runner) RunCapex(ctx context.Context, refresh bool) error {
	frame, err := r.loadOrBuild(ctx, "capex_dataset.csv", refresh, r.Col.BuildCapexDataset)
	if err != nil {
		return err
	}
	r.recordSnapshot("capex", "fred+yahoo", "capex_dataset.csv", frame)

	fit, err := r.fitCapexPanel(frame)
	if err != nil {
		return fmt.Errorf("capex panel: %w", err)
	}
	fit.Summary(r.Out)
	r.recordRegression("capex", fit)

	if _, err := r.Charts.CapexGrowth(frame, collector.CapexTickers); err != nil {
		return err
	}
	return nil
}

// fitCapexPanel stacks the per-ticker columns into one long panel. Capex is
// reported annually and carried forward, so growth is measured year over
// year; quarters without a completed comparison drop out.
func (r *Runner) fitCapexPanel(frame *dataset.Frame) (*regress.Model, error) {
	fedFunds := frame.Column(collector.ColFedFunds)
	gdpGrowth := yoyGrowth(frame.Column(collector.ColRealGDP))

	var (
		y, rate, gdp, leverage []float64
		labels                 []string
	)
	for _, ticker := range collector.CapexTickers {
		capex := frame.Column(ticker + "_Capex")
		assets := frame.Column(ticker + "_Assets")
		liabilities := frame.Column(ticker + "_Liabilities")
		if capex == nil || assets == nil || liabilities == nil {
			continue
		}
		growth := yoyGrowth(capex)
		for i := range growth {
			if math.IsNaN(growth[i]) || growth[i] == 0 {
				continue // no new annual report this quarter
			}
			if math.IsNaN(fedFunds[i]) || math.IsNaN(gdpGrowth[i]) {
				continue
			}
			lev := math.NaN()
			if !math.IsNaN(assets[i]) && assets[i] != 0 {
				lev = liabilities[i] / assets[i]
			}
			if math.IsNaN(lev) {
				continue
			}
			y = append(y, growth[i])
			rate = append(rate, fedFunds[i])
			gdp = append(gdp, gdpGrowth[i])
			leverage = append(leverage, lev)
			labels = append(labels, ticker)
		}
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("no usable panel observations")
	}

	columns := [][]float64{regress.AddConstant(len(y)), rate, gdp, leverage}
	names := []string{simulate.FeatConst, collector.ColFedFunds, "GDP_Growth", "Leverage"}

	dummyCols, dummyNames := regress.Dummies("Ticker", labels)
	columns = append(columns, dummyCols...)
	names = append(names, dummyNames...)

	return regress.FitClustered("Capex_Growth", y, columns, names, labels)
}

// yoyGrowth is the fractional change against the observation four quarters
// back.
func yoyGrowth(values []float64) []float64 {
	lagged := dataset.Lag(values, quartersPerYear)
	out := make([]float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) || math.IsNaN(lagged[i]) || lagged[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/lagged[i] - 1
	}
	return out
}
