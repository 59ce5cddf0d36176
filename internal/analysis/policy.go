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

// RunPolicy executes the transmission study: how daily yield-curve spread
// moves pass through to US and UK bond index returns.
func (r *Runner) RunPolicy(ctx context.Context, refresh bool) error {
	frame, err := r.loadOrBuild(ctx, "policy_dataset.csv", refresh, r.Col.BuildPolicyDataset)
	if err != nil {
		return err
	}
	r.recordSnapshot("policy", "fred+yahoo", "policy_dataset.csv", frame)

	usFit, err := r.fitSpreadPassThrough(frame, collector.ColUSBondReturn, collector.ColUSSpread, "US_Spread_Change")
	if err != nil {
		return fmt.Errorf("us fit: %w", err)
	}
	usFit.Summary(r.Out)
	r.recordRegression("policy", usFit)

	ukFit, err := r.fitSpreadPassThrough(frame, collector.ColUKBondReturn, collector.ColUKSpread, "UK_Spread_Change")
	if err != nil {
		return fmt.Errorf("uk fit: %w", err)
	}
	ukFit.Summary(r.Out)
	r.recordRegression("policy", ukFit)

	if _, err := r.Charts.YieldCurves(frame, collector.ColUSSpread, collector.ColUKSpread); err != nil {
		return err
	}
	if _, err := r.Charts.CumulativeComparison(frame, collector.ColUSBondReturn, collector.ColUKBondReturn); err != nil {
		return err
	}
	return nil
}

// fitSpreadPassThrough regresses a bond return on the day's spread change.
func (r *Runner) fitSpreadPassThrough(frame *dataset.Frame, returnCol, spreadCol, changeName string) (*regress.Model, error) {
	rets := frame.Column(returnCol)
	spreadChange := dataset.Diff(frame.Column(spreadCol))

	var y, x []float64
	for i := range rets {
		if math.IsNaN(rets[i]) || math.IsNaN(spreadChange[i]) {
			continue
		}
		y = append(y, rets[i])
		x = append(x, spreadChange[i])
	}
	return regress.Fit(returnCol,
		y,
		[][]float64{regress.AddConstant(len(y)), x},
		[]string{simulate.FeatConst, changeName},
	)
}
