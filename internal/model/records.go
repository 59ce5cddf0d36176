package model

import "time"

// DatasetSnapshot summarises one built study dataset.
type DatasetSnapshot struct {
	Study   string
	Source  string
	Rows    int
	Columns int
	From    time.Time
	To      time.Time
	CSVPath string
}

// RegressionRecord captures the headline numbers of a fitted model.
type RegressionRecord struct {
	Study        string
	Target       string
	Observations int
	R2           float64
	AdjR2        float64
	Clustered    bool
	Coefficients map[string]float64
}

// SimulationRecord captures one forward scenario run.
type SimulationRecord struct {
	RunID          string
	Study          string
	Scenario       string
	DaysAhead      int
	AnnouncementBP float64
	FinalCumReturn float64
	FinalLevel     float64
}

// ShockEvent is a detected policy-rate shock on a single trading day.
type ShockEvent struct {
	Date         time.Time
	RateChangeBP float64
	Type         string
	Return       float64
}
