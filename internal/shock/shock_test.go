package shock

import (
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleSeries() Series {
	returns := []float64{0.01, -0.02, 0.03, 0.0, 0.01}
	s := make(Series, len(returns))
	for i, r := range returns {
		s[i] = Point{Date: day("2022-01-01").AddDate(0, 0, i), Return: r}
	}
	return s
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		bp   float64
		want Type
	}{
		{0, NoShock},
		{9.99, NoShock},
		{-9.99, NoShock},
		{10, Hike},
		{-10, Cut},
		{25, Hike},
		{-25, Cut},
		{10.01, Hike},
		{-10.01, Cut},
	}
	for _, tt := range tests {
		if got := Classify(tt.bp, 10); got != tt.want {
			t.Errorf("Classify(%v, 10) = %v, want %v", tt.bp, got, tt.want)
		}
	}
}

func TestClassify_ZeroChangeNeverShocks(t *testing.T) {
	if got := Classify(0, 0); got != NoShock {
		t.Errorf("Classify(0, 0) = %v, want NoShock", got)
	}
}

func TestTagSeries_MembershipAndEpoch(t *testing.T) {
	s := sampleSeries()
	cal := Calendar{day("2022-01-04"), day("2022-01-02")} // unsorted on purpose

	tagged := TagSeries(s, cal, 10)
	if len(tagged) != len(s) {
		t.Fatalf("expected %d tagged rows, got %d", len(s), len(tagged))
	}

	wantEpochs := []int{-1, 0, 0, 1, 1}
	wantMember := []bool{false, true, false, true, false}
	for i, tp := range tagged {
		if tp.Epoch != wantEpochs[i] {
			t.Errorf("row %d: epoch = %d, want %d", i, tp.Epoch, wantEpochs[i])
		}
		if tp.IsAnnouncement != wantMember[i] {
			t.Errorf("row %d: membership = %v, want %v", i, tp.IsAnnouncement, wantMember[i])
		}
	}
}

func TestTagSeries_PerRowClassification(t *testing.T) {
	s := Series{
		{Date: day("2022-01-03"), Return: 0.01, RateChange: 0.25},  // +25bp
		{Date: day("2022-01-04"), Return: 0.01, RateChange: -0.10}, // -10bp
		{Date: day("2022-01-05"), Return: 0.01, RateChange: 0.05},  // +5bp
	}
	tagged := TagSeries(s, nil, 10)
	want := []Type{Hike, Cut, NoShock}
	for i, tp := range tagged {
		if tp.Shock != want[i] {
			t.Errorf("row %d: shock = %v, want %v", i, tp.Shock, want[i])
		}
		if math.Abs(tp.RateChangeBP-s[i].RateChange*100) > 1e-12 {
			t.Errorf("row %d: bp = %v, want %v", i, tp.RateChangeBP, s[i].RateChange*100)
		}
	}
}

func TestTagSeries_Empty(t *testing.T) {
	if got := TagSeries(nil, Calendar{day("2022-01-03")}, 10); len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestBuildWindows_ConcreteScenario(t *testing.T) {
	s := sampleSeries()
	cal := Calendar{day("2022-01-03")}
	cfg := WindowConfig{BeforeDays: 1, AfterDays: 1, ThresholdBP: 10}

	win := BuildWindows(s, cal, cfg)
	if len(win) != 3 {
		t.Fatalf("expected 3 window rows, got %d", len(win))
	}

	wantOffsets := []int{-1, 0, 1}
	wantCum := []float64{0.0, -0.02, 0.0094}
	for i, w := range win {
		if w.Offset != wantOffsets[i] {
			t.Errorf("row %d: offset = %d, want %d", i, w.Offset, wantOffsets[i])
		}
		if math.Abs(w.CumReturn-wantCum[i]) > 1e-9 {
			t.Errorf("row %d: cum return = %v, want %v", i, w.CumReturn, wantCum[i])
		}
		if !w.Announcement.Equal(day("2022-01-03")) {
			t.Errorf("row %d: announcement = %v", i, w.Announcement)
		}
	}
}

func TestBuildWindows_SkipsEmptyWindows(t *testing.T) {
	s := sampleSeries()
	cal := Calendar{day("2021-06-01"), day("2022-01-03"), day("2023-01-01")}
	cfg := WindowConfig{BeforeDays: 2, AfterDays: 2, ThresholdBP: 10}

	win := BuildWindows(s, cal, cfg)
	announcements := map[int64]struct{}{}
	for _, w := range win {
		announcements[w.Announcement.Unix()] = struct{}{}
	}
	if len(announcements) != 1 {
		t.Errorf("expected exactly 1 represented announcement, got %d", len(announcements))
	}
	if len(win) == 0 {
		t.Fatal("expected rows for the in-range announcement")
	}
}

func TestBuildWindows_Overlap(t *testing.T) {
	// Daily series from 2021-12-23 so the two windows start on different
	// rows: the second announcement's 10-day lookback begins 2021-12-27.
	var s Series
	for d := day("2021-12-23"); !d.After(day("2022-01-05")); d = d.AddDate(0, 0, 1) {
		s = append(s, Point{Date: d, Return: 0.01})
	}
	cal := Calendar{day("2022-01-01"), day("2022-01-06")} // 5 days apart
	cfg := WindowConfig{BeforeDays: 10, AfterDays: 20, ThresholdBP: 10}

	win := BuildWindows(s, cal, cfg)

	byDate := map[int64][]WindowPoint{}
	for _, w := range win {
		byDate[w.Date.Unix()] = append(byDate[w.Date.Unix()], w)
	}
	rows := byDate[day("2022-01-03").Unix()]
	if len(rows) != 2 {
		t.Fatalf("expected the shared day in 2 windows, got %d", len(rows))
	}
	if rows[0].Offset == rows[1].Offset {
		t.Errorf("expected distinct offsets, both %d", rows[0].Offset)
	}
	if rows[0].CumReturn == rows[1].CumReturn {
		t.Errorf("expected independently seeded cumulative returns, both %v", rows[0].CumReturn)
	}
}

func TestBuildWindows_Invariants(t *testing.T) {
	s := sampleSeries()
	cal := Calendar{day("2022-01-02"), day("2022-01-04")}
	cfg := WindowConfig{BeforeDays: 3, AfterDays: 5, ThresholdBP: 10}

	win := BuildWindows(s, cal, cfg)
	if len(win) == 0 {
		t.Fatal("expected window rows")
	}

	var prev *WindowPoint
	for i := range win {
		w := win[i]
		if w.Offset < -cfg.BeforeDays || w.Offset > cfg.AfterDays {
			t.Errorf("offset %d out of [-%d, %d]", w.Offset, cfg.BeforeDays, cfg.AfterDays)
		}
		firstOfWindow := prev == nil || !prev.Announcement.Equal(w.Announcement)
		if firstOfWindow && w.CumReturn != 0 {
			t.Errorf("window %v: first row cum return = %v, want 0", w.Announcement, w.CumReturn)
		}
		if !firstOfWindow && w.Offset < prev.Offset {
			t.Errorf("window %v: offsets decreased %d -> %d", w.Announcement, prev.Offset, w.Offset)
		}
		prev = &win[i]
	}
}

func TestBuildWindows_AnnouncementDayClassification(t *testing.T) {
	s := Series{
		{Date: day("2022-03-15"), Return: 0.01, RateChange: 0.0},
		{Date: day("2022-03-16"), Return: -0.01, RateChange: 0.25}, // +25bp on the announcement
		{Date: day("2022-03-17"), Return: 0.02, RateChange: 0.0},
	}
	cfg := WindowConfig{BeforeDays: 2, AfterDays: 2, ThresholdBP: 10}

	win := BuildWindows(s, Calendar{day("2022-03-16")}, cfg)
	for _, w := range win {
		if w.Shock != Hike {
			t.Errorf("expected every row tagged Hike, got %v at offset %d", w.Shock, w.Offset)
		}
	}

	// Announcement on a non-trading day defaults to NoShock.
	win = BuildWindows(s, Calendar{day("2022-03-19")}, cfg)
	if len(win) == 0 {
		t.Fatal("expected rows for the weekend announcement window")
	}
	for _, w := range win {
		if w.Shock != NoShock {
			t.Errorf("expected NoShock for missing announcement day, got %v", w.Shock)
		}
	}
}

func TestBuildWindows_EmptyInputs(t *testing.T) {
	if win := BuildWindows(nil, Calendar{day("2022-01-03")}, DefaultWindowConfig()); len(win) != 0 {
		t.Errorf("empty series: expected no windows, got %d rows", len(win))
	}
	if win := BuildWindows(sampleSeries(), nil, DefaultWindowConfig()); len(win) != 0 {
		t.Errorf("empty calendar: expected no windows, got %d rows", len(win))
	}
}

func TestAverageByOffset_SingleWindowIdentity(t *testing.T) {
	s := sampleSeries()
	cfg := WindowConfig{BeforeDays: 1, AfterDays: 1, ThresholdBP: 10}
	win := BuildWindows(s, Calendar{day("2022-01-03")}, cfg)

	avg := AverageByOffset(win)
	if len(avg) != len(win) {
		t.Fatalf("expected %d offsets, got %d", len(win), len(avg))
	}
	for i, m := range avg {
		if m.Count != 1 {
			t.Errorf("offset %d: count = %d, want 1", m.Offset, m.Count)
		}
		if math.Abs(m.MeanCumReturn-win[i].CumReturn) > 1e-12 {
			t.Errorf("offset %d: mean = %v, want %v", m.Offset, m.MeanCumReturn, win[i].CumReturn)
		}
	}
}

func TestAverageByOffset_Grouping(t *testing.T) {
	points := []WindowPoint{
		{Offset: 0, CumReturn: 0.02},
		{Offset: 0, CumReturn: 0.04},
		{Offset: 1, CumReturn: -0.01},
	}
	avg := AverageByOffset(points)
	if len(avg) != 2 {
		t.Fatalf("expected 2 offsets, got %d", len(avg))
	}
	if math.Abs(avg[0].MeanCumReturn-0.03) > 1e-12 || avg[0].Count != 2 {
		t.Errorf("offset 0: got mean %v count %d", avg[0].MeanCumReturn, avg[0].Count)
	}
	if math.Abs(avg[1].MeanCumReturn+0.01) > 1e-12 || avg[1].Count != 1 {
		t.Errorf("offset 1: got mean %v count %d", avg[1].MeanCumReturn, avg[1].Count)
	}
}

func TestAverageByOffsetType_SeparatesTypes(t *testing.T) {
	points := []WindowPoint{
		{Offset: 0, Shock: Hike, CumReturn: 0.02},
		{Offset: 0, Shock: Cut, CumReturn: -0.02},
		{Offset: 0, Shock: Hike, CumReturn: 0.04},
	}
	avg := AverageByOffsetType(points)
	if len(avg) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(avg))
	}
	for _, m := range avg {
		switch m.Shock {
		case Hike:
			if math.Abs(m.MeanCumReturn-0.03) > 1e-12 || m.Count != 2 {
				t.Errorf("hike group: mean %v count %d", m.MeanCumReturn, m.Count)
			}
		case Cut:
			if math.Abs(m.MeanCumReturn+0.02) > 1e-12 || m.Count != 1 {
				t.Errorf("cut group: mean %v count %d", m.MeanCumReturn, m.Count)
			}
		default:
			t.Errorf("unexpected group %v", m.Shock)
		}
	}
}

func TestEpochOf(t *testing.T) {
	dates := []time.Time{day("2022-01-02"), day("2022-01-04")}
	tests := []struct {
		d    string
		want int
	}{
		{"2022-01-01", -1},
		{"2022-01-02", 0},
		{"2022-01-03", 0},
		{"2022-01-04", 1},
		{"2022-01-09", 1},
	}
	for _, tt := range tests {
		if got := epochOf(day(tt.d), dates); got != tt.want {
			t.Errorf("epochOf(%s) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
