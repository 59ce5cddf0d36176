package recorder

import "PolicyPulse/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDataset(_ *model.DatasetSnapshot) error      { return nil }
func (n *NoopRecorder) RecordRegression(_ *model.RegressionRecord) error  { return nil }
func (n *NoopRecorder) RecordSimulation(_ *model.SimulationRecord) error  { return nil }
func (n *NoopRecorder) RecordShockEvent(_ *model.ShockEvent) error        { return nil }
func (n *NoopRecorder) Close() error                                      { return nil }
