package dataset

import (
	"math"
	"testing"
	"time"
)

func d(day int) time.Time {
	return time.Date(2022, 1, day, 0, 0, 0, 0, time.UTC)
}

func floatsEqual(a, b []float64, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestNew_SortsAndDedups(t *testing.T) {
	f := New([]time.Time{d(5), d(3), d(5), d(1)})
	if f.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Len())
	}
	dates := f.Dates()
	if !dates[0].Equal(d(1)) || !dates[2].Equal(d(5)) {
		t.Errorf("dates not sorted: %v", dates)
	}
}

func TestFromColumn_AlignsUnsortedInput(t *testing.T) {
	f, err := FromColumn("x", []time.Time{d(3), d(1), d(2)}, []float64{30, 10, 20})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{10, 20, 30}
	if !floatsEqual(f.Column("x"), want, 0) {
		t.Errorf("expected %v, got %v", want, f.Column("x"))
	}
}

func TestFromColumn_LengthMismatch(t *testing.T) {
	if _, err := FromColumn("x", []time.Time{d(1)}, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestJoin_OuterWithNaN(t *testing.T) {
	a, _ := FromColumn("a", []time.Time{d(1), d(2)}, []float64{1, 2})
	b, _ := FromColumn("b", []time.Time{d(2), d(3)}, []float64{20, 30})
	j := a.Join(b)

	if j.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", j.Len())
	}
	av := j.Column("a")
	if av[0] != 1 || av[1] != 2 || !math.IsNaN(av[2]) {
		t.Errorf("column a wrong: %v", av)
	}
	bv := j.Column("b")
	if !math.IsNaN(bv[0]) || bv[1] != 20 || bv[2] != 30 {
		t.Errorf("column b wrong: %v", bv)
	}
}

func TestJoin_OverlappingColumnOtherWins(t *testing.T) {
	a, _ := FromColumn("x", []time.Time{d(1), d(2)}, []float64{1, 2})
	b, _ := FromColumn("x", []time.Time{d(2)}, []float64{99})
	j := a.Join(b)

	x := j.Column("x")
	if x[0] != 1 || x[1] != 99 {
		t.Errorf("expected [1 99], got %v", x)
	}
}

func TestFFill(t *testing.T) {
	f, _ := FromColumn("x", []time.Time{d(1), d(2), d(3), d(4)}, []float64{math.NaN(), 2, math.NaN(), math.NaN()})
	out := f.FFill()
	got := out.Column("x")
	if !math.IsNaN(got[0]) {
		t.Error("leading NaN must stay")
	}
	if got[1] != 2 || got[2] != 2 || got[3] != 2 {
		t.Errorf("fill wrong: %v", got)
	}
	// the original is untouched
	if !math.IsNaN(f.Column("x")[2]) {
		t.Error("FFill mutated the source frame")
	}
}

func TestDropNaN_SelectedColumns(t *testing.T) {
	f, _ := FromColumn("a", []time.Time{d(1), d(2), d(3)}, []float64{1, math.NaN(), 3})
	f.SetColumn("b", []float64{math.NaN(), 20, 30})

	onA := f.DropNaN("a")
	if onA.Len() != 2 {
		t.Errorf("expected 2 rows dropping on a, got %d", onA.Len())
	}
	all := f.DropNaN()
	if all.Len() != 1 || !all.Dates()[0].Equal(d(3)) {
		t.Errorf("expected only day 3 to survive, got %v", all.Dates())
	}
}

func TestSlice_Closed(t *testing.T) {
	f, _ := FromColumn("x", []time.Time{d(1), d(2), d(3), d(4)}, []float64{1, 2, 3, 4})
	s := f.Slice(d(2), d(3))
	if s.Len() != 2 || s.Column("x")[0] != 2 || s.Column("x")[1] != 3 {
		t.Errorf("slice wrong: %v", s.Column("x"))
	}
}

func TestReindex(t *testing.T) {
	f, _ := FromColumn("x", []time.Time{d(1), d(3)}, []float64{1, 3})
	r := f.Reindex([]time.Time{d(1), d(2), d(3)})
	got := r.Column("x")
	if got[0] != 1 || !math.IsNaN(got[1]) || got[2] != 3 {
		t.Errorf("reindex wrong: %v", got)
	}
}

func TestResampleQuarterEnd(t *testing.T) {
	dates := []time.Time{
		time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 4, 10, 0, 0, 0, 0, time.UTC),
	}
	f, _ := FromColumn("x", dates, []float64{1, 2, 3})
	q := f.ResampleQuarterEnd()

	if q.Len() != 2 {
		t.Fatalf("expected 2 quarters, got %d", q.Len())
	}
	qd := q.Dates()
	if !qd[0].Equal(time.Date(2022, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Q1 end wrong: %v", qd[0])
	}
	if !qd[1].Equal(time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Q2 end wrong: %v", qd[1])
	}
	// last observation in the quarter wins
	if q.Column("x")[0] != 2 {
		t.Errorf("expected February value for Q1, got %v", q.Column("x")[0])
	}
}

func TestOps(t *testing.T) {
	t.Run("Diff", func(t *testing.T) {
		got := Diff([]float64{1, 3, 6})
		if !math.IsNaN(got[0]) || got[1] != 2 || got[2] != 3 {
			t.Errorf("diff wrong: %v", got)
		}
	})
	t.Run("PctChange", func(t *testing.T) {
		got := PctChange([]float64{100, 110, 0, 50})
		if !math.IsNaN(got[0]) {
			t.Error("first element must be NaN")
		}
		if math.Abs(got[1]-0.1) > 1e-12 {
			t.Errorf("expected 0.1, got %v", got[1])
		}
		if !math.IsNaN(got[3]) {
			t.Error("change after a zero must be NaN")
		}
	})
	t.Run("Lag", func(t *testing.T) {
		got := Lag([]float64{1, 2, 3}, 1)
		if !math.IsNaN(got[0]) || got[1] != 1 || got[2] != 2 {
			t.Errorf("lag wrong: %v", got)
		}
	})
	t.Run("Sub", func(t *testing.T) {
		got := Sub([]float64{5, 7}, []float64{2, 3})
		if got[0] != 3 || got[1] != 4 {
			t.Errorf("sub wrong: %v", got)
		}
	})
	t.Run("Scale", func(t *testing.T) {
		got := Scale([]float64{0.01, math.NaN()}, 100)
		if got[0] != 1 || !math.IsNaN(got[1]) {
			t.Errorf("scale wrong: %v", got)
		}
	})
	t.Run("CumCompound", func(t *testing.T) {
		got := CumCompound([]float64{0.1, math.NaN(), -0.5})
		want := []float64{0.1, 0.1, -0.45}
		if !floatsEqual(got, want, 1e-12) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}
