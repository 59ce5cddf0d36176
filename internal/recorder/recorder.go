package recorder

import "PolicyPulse/internal/model"

// Recorder persists study runs for later analysis.
type Recorder interface {
	RecordDataset(snap *model.DatasetSnapshot) error
	RecordRegression(rec *model.RegressionRecord) error
	RecordSimulation(rec *model.SimulationRecord) error
	RecordShockEvent(evt *model.ShockEvent) error
	Close() error
}
