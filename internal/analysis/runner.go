package analysis

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"PolicyPulse/internal/chart"
	"PolicyPulse/internal/collector"
	"PolicyPulse/internal/config"
	"PolicyPulse/internal/dataset"
	"PolicyPulse/internal/model"
	"PolicyPulse/internal/recorder"
)

// Runner executes the studies end to end: dataset, estimation, charts,
// recording, console output.
type Runner struct {
	Col    *collector.Collector
	Charts *chart.Renderer
	Rec    recorder.Recorder
	Cfg    *config.Config
	Out    io.Writer
}

func NewRunner(col *collector.Collector, charts *chart.Renderer, rec recorder.Recorder, cfg *config.Config) *Runner {
	return &Runner{Col: col, Charts: charts, Rec: rec, Cfg: cfg, Out: os.Stdout}
}

// RunAll executes every study. The first failure stops the run.
func (r *Runner) RunAll(ctx context.Context, refresh bool) error {
	if _, err := r.RunShocks(ctx, refresh); err != nil {
		return fmt.Errorf("shocks study: %w", err)
	}
	if err := r.RunPolicy(ctx, refresh); err != nil {
		return fmt.Errorf("policy study: %w", err)
	}
	if err := r.RunCapex(ctx, refresh); err != nil {
		return fmt.Errorf("capex study: %w", err)
	}
	return nil
}

// loadOrBuild serves the CSV cache unless a refresh is requested or the
// cache is missing.
func (r *Runner) loadOrBuild(ctx context.Context, name string, refresh bool,
	build func(context.Context, time.Time, time.Time) (*dataset.Frame, error)) (*dataset.Frame, error) {

	start, end, err := r.Cfg.SampleRange()
	if err != nil {
		return nil, err
	}
	if !refresh {
		if frame, err := r.Col.LoadCached(name); err == nil && frame.Len() > 0 {
			log.Printf("[INFO] Runner: using cached %s (%d rows)", name, frame.Len())
			return frame, nil
		}
	}
	return build(ctx, start, end)
}

func (r *Runner) recordSnapshot(study, source, csvName string, frame *dataset.Frame) {
	dates := frame.Dates()
	snap := &model.DatasetSnapshot{
		Study:   study,
		Source:  source,
		Rows:    frame.Len(),
		Columns: len(frame.ColumnNames()),
		From:    dates[0],
		To:      dates[len(dates)-1],
		CSVPath: filepath.Join(r.Col.DataDir, csvName),
	}
	if err := r.Rec.RecordDataset(snap); err != nil {
		log.Printf("[WARN] record dataset snapshot: %v", err)
	}
}
