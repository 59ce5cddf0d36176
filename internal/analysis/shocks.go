package analysis

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/olekukonko/tablewriter"

	"PolicyPulse/internal/collector"
	"PolicyPulse/internal/dataset"
	"PolicyPulse/internal/model"
	"PolicyPulse/internal/regress"
	"PolicyPulse/internal/shock"
	"PolicyPulse/internal/simulate"
)

// ShocksResult carries what the daemon needs after a shocks run.
type ShocksResult struct {
	Frame       *dataset.Frame
	Windows     []shock.WindowPoint
	LatestShock *model.ShockEvent // most recent announcement-day shock, nil if none
}

// RunShocks executes the announcement reaction study: event windows and
// offset averages, a lagged-return baseline fit, the full-feature fit, and
// forward scenarios from the last observed day.
func (r *Runner) RunShocks(ctx context.Context, refresh bool) (*ShocksResult, error) {
	frame, err := r.loadOrBuild(ctx, "shocks_dataset.csv", refresh, r.Col.BuildShocksDataset)
	if err != nil {
		return nil, err
	}
	r.recordSnapshot("shocks", "fred+yahoo", "shocks_dataset.csv", frame)

	dates := frame.Dates()
	rets := frame.Column(collector.ColSP500Return)
	changes := frame.Column(collector.ColRateChange)
	closes := frame.Column(collector.ColSP500Close)

	series := make(shock.Series, frame.Len())
	for i := range series {
		series[i] = shock.Point{Date: dates[i], Return: rets[i], RateChange: changes[i]}
	}

	cal, err := r.Cfg.AnnouncementDates()
	if err != nil {
		return nil, err
	}
	winCfg := shock.WindowConfig{
		BeforeDays:  r.Cfg.Shock.BeforeDays,
		AfterDays:   r.Cfg.Shock.AfterDays,
		ThresholdBP: r.Cfg.Shock.ThresholdBP,
	}

	tagged := shock.TagSeries(series, cal, winCfg.ThresholdBP)
	windows := shock.BuildWindows(series, cal, winCfg)
	offsetMeans := shock.AverageByOffset(windows)
	typedMeans := shock.AverageByOffsetType(windows)

	result := &ShocksResult{Frame: frame, Windows: windows}
	for _, tp := range tagged {
		if !tp.IsAnnouncement || tp.Shock == shock.NoShock {
			continue
		}
		evt := &model.ShockEvent{
			Date:         tp.Date,
			RateChangeBP: tp.RateChangeBP,
			Type:         string(tp.Shock),
			Return:       tp.Return,
		}
		if err := r.Rec.RecordShockEvent(evt); err != nil {
			log.Printf("[WARN] record shock event: %v", err)
		}
		result.LatestShock = evt
	}

	r.printOffsetTable(offsetMeans)

	// Baseline: does yesterday's return predict today's?
	lagged, err := r.fitLaggedReturn(rets)
	if err != nil {
		return nil, err
	}
	lagged.Summary(r.Out)
	r.recordRegression("shocks", lagged)

	full, m1Growth, err := r.fitFullModel(frame, tagged)
	if err != nil {
		return nil, err
	}
	full.Summary(r.Out)
	r.recordRegression("shocks", full)

	if _, err := r.Charts.AverageReaction(offsetMeans); err != nil {
		return nil, err
	}
	if _, err := r.Charts.ReactionByType(typedMeans); err != nil {
		return nil, err
	}

	last := frame.Len() - 1
	start := simulate.Start{
		Date:           dates[last],
		Level:          closes[last],
		LaggedReturn:   rets[last],
		LaggedM1Growth: lastFinite(m1Growth),
	}
	scenarios := []simulate.Scenario{
		{Name: "hike_25bp", DaysAhead: r.Cfg.Simulation.DaysAhead, AnnouncementBP: 25, Shock: shock.Hike},
		{Name: "cut_25bp", DaysAhead: r.Cfg.Simulation.DaysAhead, AnnouncementBP: -25, Shock: shock.Cut},
		{Name: "no_change", DaysAhead: r.Cfg.Simulation.DaysAhead, AnnouncementBP: 0, Shock: shock.NoShock},
	}
	for _, sc := range scenarios {
		path, err := simulate.Run(full, start, sc)
		if err != nil {
			log.Printf("[WARN] scenario %s not runnable with this fit: %v", sc.Name, err)
			continue
		}
		final := path.Final()
		fmt.Fprintf(r.Out, "\nScenario %s: %+.2f%% over %d days (level %.1f -> %.1f)\n",
			sc.Name, final.CumReturn*100, sc.DaysAhead, start.Level, final.Level)
		if _, err := r.Charts.Simulation(path); err != nil {
			return nil, err
		}
		rec := &model.SimulationRecord{
			RunID:          path.RunID,
			Study:          "shocks",
			Scenario:       sc.Name,
			DaysAhead:      sc.DaysAhead,
			AnnouncementBP: sc.AnnouncementBP,
			FinalCumReturn: final.CumReturn,
			FinalLevel:     final.Level,
		}
		if err := r.Rec.RecordSimulation(rec); err != nil {
			log.Printf("[WARN] record simulation: %v", err)
		}
	}

	return result, nil
}

func (r *Runner) fitLaggedReturn(rets []float64) (*regress.Model, error) {
	var y, lag []float64
	for i := 1; i < len(rets); i++ {
		if math.IsNaN(rets[i]) || math.IsNaN(rets[i-1]) {
			continue
		}
		y = append(y, rets[i])
		lag = append(lag, rets[i-1])
	}
	return regress.Fit(collector.ColSP500Return,
		y,
		[][]float64{regress.AddConstant(len(y)), lag},
		[]string{simulate.FeatConst, simulate.FeatLaggedReturn},
	)
}

// fitFullModel regresses the daily return on the announcement-size features
// plus per-day shock dummies. It also returns the M1 growth series so the
// caller can seed simulations from its last value.
func (r *Runner) fitFullModel(frame *dataset.Frame, tagged []shock.TaggedPoint) (*regress.Model, []float64, error) {
	rets := frame.Column(collector.ColSP500Return)
	m1Growth := dataset.PctChange(frame.Column(collector.ColM1))
	lagM1 := dataset.Lag(m1Growth, 1)
	lagRet := dataset.Lag(rets, 1)

	var (
		y, bp, xm1, xlag []float64
		labels           []string
	)
	for i := range tagged {
		if math.IsNaN(rets[i]) || math.IsNaN(lagRet[i]) || math.IsNaN(lagM1[i]) {
			continue
		}
		y = append(y, rets[i])
		bp = append(bp, tagged[i].RateChangeBP)
		xm1 = append(xm1, lagM1[i])
		xlag = append(xlag, lagRet[i])
		labels = append(labels, string(tagged[i].Shock))
	}

	columns := [][]float64{regress.AddConstant(len(y)), bp, xm1, xlag}
	names := []string{simulate.FeatConst, simulate.FeatRateChangeBP, simulate.FeatLaggedM1Growth, simulate.FeatLaggedReturn}

	dummyCols, dummyNames := regress.Dummies(simulate.ShockDummyPrefix, labels)
	columns = append(columns, dummyCols...)
	names = append(names, dummyNames...)

	m, err := regress.Fit(collector.ColSP500Return, y, columns, names)
	if err != nil {
		return nil, nil, fmt.Errorf("full model: %w", err)
	}
	return m, m1Growth, nil
}

func (r *Runner) printOffsetTable(means []shock.OffsetMean) {
	fmt.Fprintf(r.Out, "\nAverage reaction by window offset (%d offsets)\n", len(means))
	table := tablewriter.NewWriter(r.Out)
	table.Header("Offset", "Mean cum return", "Obs")
	for _, m := range means {
		table.Append(
			fmt.Sprintf("%d", m.Offset),
			fmt.Sprintf("%+.4f%%", m.MeanCumReturn*100),
			fmt.Sprintf("%d", m.Count),
		)
	}
	table.Render()
}

func (r *Runner) recordRegression(study string, m *regress.Model) {
	rec := &model.RegressionRecord{
		Study:        study,
		Target:       m.Target,
		Observations: m.N,
		R2:           m.R2,
		AdjR2:        m.AdjR2,
		Clustered:    m.Clustered,
		Coefficients: m.CoefficientMap(),
	}
	if err := r.Rec.RecordRegression(rec); err != nil {
		log.Printf("[WARN] record regression: %v", err)
	}
}

func lastFinite(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return 0
}
