package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"PolicyPulse/internal/dataset"
	"PolicyPulse/internal/shock"
	"PolicyPulse/internal/simulate"
)

// Renderer writes self-contained HTML charts into OutDir. Inputs are
// decimal fractions; display values are scaled to percent here.
type Renderer struct {
	OutDir string
}

func NewRenderer(outDir string) *Renderer {
	return &Renderer{OutDir: outDir}
}

func (r *Renderer) write(name string, render func(w io.Writer) error) (string, error) {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.OutDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := render(f); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return path, nil
}

func baseLine(title, subtitle, xName, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

// AverageReaction renders the mean cumulative return by window offset, with
// a marker on the announcement day.
func (r *Renderer) AverageReaction(means []shock.OffsetMean) (string, error) {
	xs := make([]int, len(means))
	ys := make([]opts.LineData, len(means))
	zeroIdx := 0
	for i, m := range means {
		xs[i] = m.Offset
		ys[i] = opts.LineData{Value: m.MeanCumReturn * 100}
		if m.Offset == 0 {
			zeroIdx = i
		}
	}

	line := baseLine("Average market reaction to rate announcements",
		"Mean cumulative return around the announcement day",
		"Days from announcement", "Cumulative return (%)")
	line.SetXAxis(xs).AddSeries("All announcements", ys,
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
			Name:  "Announcement",
			XAxis: zeroIdx,
		}),
	)
	return r.write("average_reaction.html", line.Render)
}

// ReactionByType renders one line per shock classification.
func (r *Renderer) ReactionByType(means []shock.TypedOffsetMean) (string, error) {
	byType := map[shock.Type]map[int]float64{}
	offsets := map[int]struct{}{}
	for _, m := range means {
		if byType[m.Shock] == nil {
			byType[m.Shock] = map[int]float64{}
		}
		byType[m.Shock][m.Offset] = m.MeanCumReturn * 100
		offsets[m.Offset] = struct{}{}
	}
	xs := sortedKeys(offsets)

	line := baseLine("Market reaction by shock type",
		"Mean cumulative return around the announcement day",
		"Days from announcement", "Cumulative return (%)")
	line.SetXAxis(xs)
	for _, st := range []shock.Type{shock.Hike, shock.Cut, shock.NoShock} {
		series, ok := byType[st]
		if !ok {
			continue
		}
		ys := make([]opts.LineData, len(xs))
		for i, off := range xs {
			if v, ok := series[off]; ok {
				ys[i] = opts.LineData{Value: v}
			} else {
				ys[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(string(st), ys)
	}
	return r.write("reaction_by_type.html", line.Render)
}

// YieldCurves renders the US and UK yield spreads as a two-chart page.
func (r *Renderer) YieldCurves(frame *dataset.Frame, usCol, ukCol string) (string, error) {
	xs := formatDates(frame.Dates())

	us := baseLine("US yield curve", "10Y minus 2Y Treasury spread", "", "Spread (pp)")
	us.SetXAxis(xs).AddSeries(usCol, lineData(frame.Column(usCol), 1))

	uk := baseLine("UK yield curve", "10Y gilt minus 3M interbank spread", "", "Spread (pp)")
	uk.SetXAxis(xs).AddSeries(ukCol, lineData(frame.Column(ukCol), 1))

	page := components.NewPage()
	page.AddCharts(us, uk)
	return r.write("yield_curves.html", page.Render)
}

// CumulativeComparison renders compounded US and UK bond returns on one
// chart.
func (r *Renderer) CumulativeComparison(frame *dataset.Frame, usReturnCol, ukReturnCol string) (string, error) {
	xs := formatDates(frame.Dates())
	usCum := dataset.CumCompound(frame.Column(usReturnCol))
	ukCum := dataset.CumCompound(frame.Column(ukReturnCol))

	line := baseLine("Bond market performance", "Cumulative compounded returns",
		"", "Cumulative return (%)")
	line.SetXAxis(xs).
		AddSeries("US aggregate", lineData(usCum, 100)).
		AddSeries("UK gilts", lineData(ukCum, 100))
	return r.write("cumulative_comparison.html", line.Render)
}

// Simulation renders one scenario path: cumulative return on the left axis,
// daily predicted return on the right.
func (r *Renderer) Simulation(path *simulate.Path) (string, error) {
	xs := make([]string, len(path.Days))
	cum := make([]opts.LineData, len(path.Days))
	daily := make([]opts.LineData, len(path.Days))
	for i, day := range path.Days {
		xs[i] = day.Date.Format("01-02")
		cum[i] = opts.LineData{Value: day.CumReturn * 100}
		daily[i] = opts.LineData{Value: day.PredictedReturn * 100}
	}

	line := baseLine(fmt.Sprintf("Scenario: %s", path.Scenario.Name),
		fmt.Sprintf("%+.0f bp announcement, %d day horizon", path.Scenario.AnnouncementBP, path.Scenario.DaysAhead),
		"", "Cumulative return (%)")
	line.ExtendYAxis(opts.YAxis{Name: "Daily return (%)", Type: "value"})
	line.SetXAxis(xs).
		AddSeries("Cumulative", cum).
		AddSeries("Daily", daily, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))

	name := fmt.Sprintf("simulation_%s.html", path.Scenario.Name)
	return r.write(name, line.Render)
}

// CapexGrowth renders per-ticker capex small multiples on one page.
func (r *Renderer) CapexGrowth(frame *dataset.Frame, tickers []string) (string, error) {
	xs := formatDates(frame.Dates())
	page := components.NewPage()

	added := 0
	for _, ticker := range tickers {
		col := ticker + "_Capex"
		vals := frame.Column(col)
		if vals == nil {
			continue
		}
		line := baseLine(ticker, "Annual capital expenditure", "", "USD bn")
		line.SetXAxis(xs).AddSeries(col, lineData(vals, 1e-9))
		page.AddCharts(line)
		added++
	}
	if added == 0 {
		return "", fmt.Errorf("no capex columns among tickers %v", tickers)
	}
	return r.write("capex_growth.html", page.Render)
}

func lineData(values []float64, scale float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v * scale}
	}
	return out
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
