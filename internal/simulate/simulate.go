// Package simulate projects index paths forward under hypothetical policy
// announcements, using a fitted return regression.
package simulate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"PolicyPulse/internal/regress"
	"PolicyPulse/internal/shock"
)

// Feature names the simulator feeds into the model. The fitted model must
// use the same design-matrix naming.
const (
	FeatConst          = "const"
	FeatRateChangeBP   = "RateChangeBP"
	FeatLaggedReturn   = "LaggedReturn"
	FeatLaggedM1Growth = "LaggedM1Growth"
	ShockDummyPrefix   = "Shock"
)

// Scenario describes one hypothetical announcement.
type Scenario struct {
	Name           string
	DaysAhead      int
	AnnouncementBP float64
	Shock          shock.Type
}

// Start is the state the projection launches from, taken from the last
// observed trading day.
type Start struct {
	Date           time.Time
	Level          float64
	LaggedReturn   float64
	LaggedM1Growth float64
}

// SimDay is one projected day. Day 0 is the announcement day.
type SimDay struct {
	Day             int
	Date            time.Time
	PredictedReturn float64
	CumReturn       float64
	Level           float64
}

// Path is a completed scenario run.
type Path struct {
	RunID      string
	Scenario   Scenario
	StartDate  time.Time
	StartLevel float64
	Days       []SimDay
}

// Run projects DaysAhead trading days. The rate change and the shock dummy
// apply only on day 0; later days feed each prediction back as the next
// day's lagged return, with lagged M1 growth held at its starting value.
func Run(m *regress.Model, start Start, sc Scenario) (*Path, error) {
	if sc.DaysAhead <= 0 {
		return nil, fmt.Errorf("days ahead must be positive, got %d", sc.DaysAhead)
	}
	if start.Level <= 0 {
		return nil, fmt.Errorf("starting level must be positive, got %v", start.Level)
	}
	dummies := shockDummies(m)
	if err := checkDummy(dummies, sc.Shock); err != nil {
		return nil, err
	}

	path := &Path{
		RunID:      uuid.NewString(),
		Scenario:   sc,
		StartDate:  start.Date,
		StartLevel: start.Level,
		Days:       make([]SimDay, 0, sc.DaysAhead),
	}

	level := start.Level
	laggedReturn := start.LaggedReturn
	for d := 0; d < sc.DaysAhead; d++ {
		features := map[string]float64{
			FeatConst:          1,
			FeatRateChangeBP:   0,
			FeatLaggedReturn:   laggedReturn,
			FeatLaggedM1Growth: start.LaggedM1Growth,
		}
		if d == 0 {
			features[FeatRateChangeBP] = sc.AnnouncementBP
		}
		for _, name := range dummies {
			features[name] = 0
			if d == 0 && name == ShockDummyPrefix+"_"+string(sc.Shock) {
				features[name] = 1
			}
		}

		predicted, err := m.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", d, err)
		}

		level *= 1 + predicted
		path.Days = append(path.Days, SimDay{
			Day:             d,
			Date:            start.Date.AddDate(0, 0, d+1),
			PredictedReturn: predicted,
			CumReturn:       level/start.Level - 1,
			Level:           level,
		})
		laggedReturn = predicted
	}
	return path, nil
}

// Final returns the last projected day.
func (p *Path) Final() SimDay {
	return p.Days[len(p.Days)-1]
}

// shockDummies lists the model's shock indicator columns.
func shockDummies(m *regress.Model) []string {
	var out []string
	for _, name := range m.Names {
		if len(name) > len(ShockDummyPrefix)+1 && name[:len(ShockDummyPrefix)+1] == ShockDummyPrefix+"_" {
			out = append(out, name)
		}
	}
	return out
}

// checkDummy verifies the requested shock type is expressible: either it is
// the baseline level dropped from the dummy expansion, or its own column
// exists.
func checkDummy(dummies []string, t shock.Type) error {
	if t == shock.NoShock {
		return nil
	}
	want := ShockDummyPrefix + "_" + string(t)
	for _, name := range dummies {
		if name == want {
			return nil
		}
	}
	if len(dummies) == 0 {
		return fmt.Errorf("model has no shock dummies, cannot simulate %s", t)
	}
	// Absent as a column means it was the dropped baseline; all-zero
	// dummies already encode it.
	return nil
}
