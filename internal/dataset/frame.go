package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is a date-indexed table of float64 columns. Dates are ascending and
// unique; missing values are NaN. Row-changing operations return a new Frame,
// column additions mutate in place.
type Frame struct {
	dates []time.Time
	cols  map[string][]float64
	order []string
}

// New creates a Frame over the given dates, sorted and deduplicated.
func New(dates []time.Time) *Frame {
	ds := make([]time.Time, len(dates))
	copy(ds, dates)
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
	out := ds[:0]
	for i, d := range ds {
		if i == 0 || !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return &Frame{dates: out, cols: map[string][]float64{}}
}

// FromColumn builds a single-column frame. Values are aligned to the sorted
// date index; with duplicate dates the last value wins.
func FromColumn(name string, dates []time.Time, values []float64) (*Frame, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("column %s: %d values for %d dates", name, len(values), len(dates))
	}
	f := New(dates)
	vals := nanSlice(f.Len())
	for i, p := range f.indexOf(dates) {
		vals[p] = values[i]
	}
	f.cols[name] = vals
	f.order = append(f.order, name)
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.dates) }

// Dates returns a copy of the date index.
func (f *Frame) Dates() []time.Time {
	ds := make([]time.Time, len(f.dates))
	copy(ds, f.dates)
	return ds
}

// ColumnNames returns column names in insertion order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.order))
	copy(names, f.order)
	return names
}

// Column returns the values of the named column, or nil if absent.
// The returned slice is shared; callers must not modify it.
func (f *Frame) Column(name string) []float64 { return f.cols[name] }

// SetColumn adds or replaces a column. The values are copied.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.dates) {
		return fmt.Errorf("column %s: length %d does not match %d rows", name, len(values), len(f.dates))
	}
	if _, exists := f.cols[name]; !exists {
		f.order = append(f.order, name)
	}
	vs := make([]float64, len(values))
	copy(vs, values)
	f.cols[name] = vs
	return nil
}

// Join performs an outer join with other on the date index. Overlapping
// column names resolve in favor of other.
func (f *Frame) Join(other *Frame) *Frame {
	merged := New(append(f.Dates(), other.dates...))
	for _, src := range []*Frame{f, other} {
		idx := merged.indexOf(src.dates)
		for _, name := range src.order {
			vals := nanSlice(merged.Len())
			for i, j := range idx {
				vals[j] = src.cols[name][i]
			}
			if existing, ok := merged.cols[name]; ok {
				for i, v := range vals {
					if math.IsNaN(v) {
						vals[i] = existing[i]
					}
				}
			}
			merged.SetColumn(name, vals)
		}
	}
	return merged
}

// FFill returns a copy with missing values carried forward per column.
func (f *Frame) FFill() *Frame {
	out := f.copyStructure(f.dates)
	for _, name := range f.order {
		vals := make([]float64, len(f.cols[name]))
		copy(vals, f.cols[name])
		last := math.NaN()
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = last
			} else {
				last = v
			}
		}
		out.cols[name] = vals
	}
	return out
}

// DropNaN returns the rows where all of the given columns (or all columns,
// if none are given) are present.
func (f *Frame) DropNaN(columns ...string) *Frame {
	if len(columns) == 0 {
		columns = f.order
	}
	keep := make([]int, 0, f.Len())
	for i := range f.dates {
		ok := true
		for _, name := range columns {
			vals, exists := f.cols[name]
			if !exists || math.IsNaN(vals[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return f.takeRows(keep)
}

// Slice returns the rows with dates in the closed range [from, to].
func (f *Frame) Slice(from, to time.Time) *Frame {
	keep := make([]int, 0, f.Len())
	for i, d := range f.dates {
		if !d.Before(from) && !d.After(to) {
			keep = append(keep, i)
		}
	}
	return f.takeRows(keep)
}

// Reindex returns a Frame on exactly the given dates; dates absent from f
// produce NaN rows.
func (f *Frame) Reindex(dates []time.Time) *Frame {
	out := New(dates)
	idx := make(map[int64]int, f.Len())
	for i, d := range f.dates {
		idx[d.Unix()] = i
	}
	for _, name := range f.order {
		vals := nanSlice(out.Len())
		for i, d := range out.dates {
			if j, ok := idx[d.Unix()]; ok {
				vals[i] = f.cols[name][j]
			}
		}
		out.SetColumn(name, vals)
	}
	return out
}

// ResampleQuarterEnd keeps the last observation of each calendar quarter,
// stamped on the quarter's final day.
func (f *Frame) ResampleQuarterEnd() *Frame {
	type bucket struct {
		end time.Time
		row int
	}
	var buckets []bucket
	seen := map[string]int{}
	for i, d := range f.dates {
		q := quarterEnd(d)
		key := q.Format("2006-01-02")
		if bi, ok := seen[key]; ok {
			buckets[bi].row = i
		} else {
			seen[key] = len(buckets)
			buckets = append(buckets, bucket{end: q, row: i})
		}
	}
	dates := make([]time.Time, len(buckets))
	rows := make([]int, len(buckets))
	for i, b := range buckets {
		dates[i] = b.end
		rows[i] = b.row
	}
	out := f.takeRows(rows)
	out.dates = dates
	return out
}

func quarterEnd(d time.Time) time.Time {
	q := (int(d.Month()) - 1) / 3
	firstOfNext := time.Date(d.Year(), time.Month(q*3+4), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

func (f *Frame) takeRows(rows []int) *Frame {
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = f.dates[r]
	}
	out := f.copyStructure(dates)
	for _, name := range f.order {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f.cols[name][r]
		}
		out.cols[name] = vals
	}
	return out
}

func (f *Frame) copyStructure(dates []time.Time) *Frame {
	ds := make([]time.Time, len(dates))
	copy(ds, dates)
	order := make([]string, len(f.order))
	copy(order, f.order)
	return &Frame{dates: ds, cols: make(map[string][]float64, len(f.order)), order: order}
}

// indexOf maps each of the given dates to its row in f. Dates must all be
// present in f's index.
func (f *Frame) indexOf(dates []time.Time) []int {
	pos := make(map[int64]int, f.Len())
	for i, d := range f.dates {
		pos[d.Unix()] = i
	}
	idx := make([]int, len(dates))
	for i, d := range dates {
		idx[i] = pos[d.Unix()]
	}
	return idx
}

func nanSlice(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return vals
}
