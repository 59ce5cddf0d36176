// Package shock detects policy-rate shocks in a daily series and builds
// fixed-width event windows around announcement dates.
package shock

import (
	"sort"
	"time"
)

// Type classifies a daily policy-rate change.
type Type string

const (
	NoShock Type = "NoShock"
	Hike    Type = "Hike"
	Cut     Type = "Cut"
)

// Point is one trading day. Return and RateChange are decimal fractions;
// RateChange is scaled to basis points internally.
type Point struct {
	Date       time.Time
	Return     float64
	RateChange float64
}

// Series is a chronological run of points with unique dates. Both are caller
// invariants; the package does not verify them.
type Series []Point

// Calendar is a set of announcement dates. Order and duplicates from the
// caller don't matter; it is sorted and deduplicated internally.
type Calendar []time.Time

// TaggedPoint is a series row enriched with calendar membership, epoch and
// its own day classification.
type TaggedPoint struct {
	Point
	RateChangeBP   float64
	IsAnnouncement bool
	// Epoch is the index of the latest calendar date at or before this row,
	// or -1 before the first announcement.
	Epoch int
	Shock Type
}

// WindowPoint is one row of an event window. CumReturn compounds the returns
// of the rows strictly before it within the same window, so the first row of
// every window is exactly 0.
type WindowPoint struct {
	Date         time.Time
	Announcement time.Time
	Offset       int
	Return       float64
	CumReturn    float64
	Shock        Type
}

// WindowConfig bounds the event window in calendar days around each
// announcement and sets the shock threshold in basis points.
type WindowConfig struct {
	BeforeDays  int
	AfterDays   int
	ThresholdBP float64
}

// DefaultWindowConfig mirrors the study's ±10/+20 day window and 10bp
// threshold.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{BeforeDays: 10, AfterDays: 20, ThresholdBP: 10}
}

// Classify maps a rate change in basis points to a shock type. Magnitudes
// meeting the threshold count as shocks, so a change of exactly ±threshold
// is a Hike or Cut.
func Classify(rateChangeBP, thresholdBP float64) Type {
	mag := rateChangeBP
	if mag < 0 {
		mag = -mag
	}
	switch {
	case mag < thresholdBP:
		return NoShock
	case rateChangeBP > 0:
		return Hike
	case rateChangeBP < 0:
		return Cut
	default:
		return NoShock
	}
}

// TagSeries returns an enriched copy of the series: calendar membership,
// announcement epoch and a per-row classification of each day's own rate
// change. The input series is not modified.
func TagSeries(s Series, cal Calendar, thresholdBP float64) []TaggedPoint {
	dates := normalize(cal)
	member := make(map[int64]struct{}, len(dates))
	for _, d := range dates {
		member[d.Unix()] = struct{}{}
	}

	tagged := make([]TaggedPoint, 0, len(s))
	for _, p := range s {
		bp := p.RateChange * 100
		_, isAnn := member[p.Date.Unix()]
		tagged = append(tagged, TaggedPoint{
			Point:          p,
			RateChangeBP:   bp,
			IsAnnouncement: isAnn,
			Epoch:          epochOf(p.Date, dates),
			Shock:          Classify(bp, thresholdBP),
		})
	}
	return tagged
}

// BuildWindows selects, for each announcement, the series rows within the
// closed calendar-day range [d-before, d+after]. Announcements with no rows
// in range contribute nothing. Every row carries its signed day offset, the
// window-local cumulative return and the classification of the announcement
// day itself (NoShock when the announcement is not a trading day). Windows
// are concatenated in calendar order; overlapping windows duplicate rows.
func BuildWindows(s Series, cal Calendar, cfg WindowConfig) []WindowPoint {
	dates := normalize(cal)

	rateAt := make(map[int64]float64, len(s))
	for _, p := range s {
		rateAt[p.Date.Unix()] = p.RateChange
	}

	var out []WindowPoint
	for _, d := range dates {
		from := d.AddDate(0, 0, -cfg.BeforeDays)
		to := d.AddDate(0, 0, cfg.AfterDays)

		windowType := NoShock
		if rc, ok := rateAt[d.Unix()]; ok {
			windowType = Classify(rc*100, cfg.ThresholdBP)
		}

		factor := 1.0
		for _, p := range s {
			if p.Date.Before(from) || p.Date.After(to) {
				continue
			}
			out = append(out, WindowPoint{
				Date:         p.Date,
				Announcement: d,
				Offset:       daysBetween(d, p.Date),
				Return:       p.Return,
				CumReturn:    factor - 1,
				Shock:        windowType,
			})
			factor *= 1 + p.Return
		}
	}
	return out
}

// OffsetMean is one point of the averaged reaction trajectory.
type OffsetMean struct {
	Offset        int
	MeanCumReturn float64
	Count         int
}

// AverageByOffset groups window rows by offset and averages their cumulative
// returns. The result is sorted by offset.
func AverageByOffset(points []WindowPoint) []OffsetMean {
	sums := map[int]*OffsetMean{}
	for _, p := range points {
		m, ok := sums[p.Offset]
		if !ok {
			m = &OffsetMean{Offset: p.Offset}
			sums[p.Offset] = m
		}
		m.MeanCumReturn += p.CumReturn
		m.Count++
	}
	out := make([]OffsetMean, 0, len(sums))
	for _, m := range sums {
		m.MeanCumReturn /= float64(m.Count)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// TypedOffsetMean is one point of a per-shock-type reaction trajectory.
type TypedOffsetMean struct {
	Offset        int
	Shock         Type
	MeanCumReturn float64
	Count         int
}

// AverageByOffsetType groups window rows by (offset, shock type), sorted by
// offset then type.
func AverageByOffsetType(points []WindowPoint) []TypedOffsetMean {
	type key struct {
		offset int
		shock  Type
	}
	sums := map[key]*TypedOffsetMean{}
	for _, p := range points {
		k := key{p.Offset, p.Shock}
		m, ok := sums[k]
		if !ok {
			m = &TypedOffsetMean{Offset: p.Offset, Shock: p.Shock}
			sums[k] = m
		}
		m.MeanCumReturn += p.CumReturn
		m.Count++
	}
	out := make([]TypedOffsetMean, 0, len(sums))
	for _, m := range sums {
		m.MeanCumReturn /= float64(m.Count)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Shock < out[j].Shock
	})
	return out
}

// epochOf returns the index of the latest calendar date at or before d, or
// -1 when d precedes the whole calendar. dates must be sorted ascending.
func epochOf(d time.Time, dates []time.Time) int {
	lo, hi := 0, len(dates)
	for lo < hi {
		mid := (lo + hi) / 2
		if dates[mid].After(d) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1
}

func normalize(cal Calendar) []time.Time {
	ds := make([]time.Time, len(cal))
	copy(ds, cal)
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
	out := ds[:0]
	for i, d := range ds {
		if i == 0 || !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}

// daysBetween counts signed whole calendar days from a to b. Both are
// expected at UTC midnight.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
