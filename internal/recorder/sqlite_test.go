package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"PolicyPulse/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordRegression(t *testing.T) {
	r := newTestRecorder(t)

	err := r.RecordRegression(&model.RegressionRecord{
		Study:        "shocks",
		Target:       "SP500_Return",
		Observations: 1250,
		R2:           0.042,
		AdjR2:        0.038,
		Clustered:    false,
		Coefficients: map[string]float64{"const": 0.0004, "Rate_Change_bp": -0.0001},
	})
	if err != nil {
		t.Fatal(err)
	}

	var count int
	var coefs string
	row := r.db.QueryRow(`SELECT COUNT(*), coefficients FROM regression_runs`)
	if err := row.Scan(&count, &coefs); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
	if coefs == "" || coefs == "null" {
		t.Errorf("coefficients not serialized: %q", coefs)
	}
}

func TestSQLiteRecorder_ShockEventDedup(t *testing.T) {
	r := newTestRecorder(t)

	evt := &model.ShockEvent{
		Date:         time.Date(2022, 3, 16, 0, 0, 0, 0, time.UTC),
		RateChangeBP: 25,
		Type:         "Hike",
		Return:       0.022,
	}
	for i := 0; i < 3; i++ {
		if err := r.RecordShockEvent(evt); err != nil {
			t.Fatal(err)
		}
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM shock_events`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("repeated shock must stay a single row, got %d", count)
	}
}

func TestSQLiteRecorder_RecordSimulationAndDataset(t *testing.T) {
	r := newTestRecorder(t)

	if err := r.RecordSimulation(&model.SimulationRecord{
		RunID:          "7f9c34a2-0000-0000-0000-000000000000",
		Study:          "shocks",
		Scenario:       "hike_25bp",
		DaysAhead:      30,
		AnnouncementBP: 25,
		FinalCumReturn: -0.013,
		FinalLevel:     4731.2,
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordDataset(&model.DatasetSnapshot{
		Study: "shocks", Source: "fred+yahoo", Rows: 1250, Columns: 5,
		From: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	var sims, snaps int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM simulation_runs`).Scan(&sims); err != nil {
		t.Fatal(err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM dataset_snapshots`).Scan(&snaps); err != nil {
		t.Fatal(err)
	}
	if sims != 1 || snaps != 1 {
		t.Errorf("expected one row each, got %d sims, %d snapshots", sims, snaps)
	}
}
