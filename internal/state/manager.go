package state

import (
	"log"
	"sync"
	"time"

	"PolicyPulse/internal/model"
)

// Manager tracks refresh progress and the most recent classified shock,
// with concurrency safety. The state backs alert deduplication across
// restarts.
type Manager struct {
	mu       sync.Mutex
	state    *model.RefreshState
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string) (*Manager, error) {
	st, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if st.LastRefreshAt == nil {
		st.LastRefreshAt = map[string]time.Time{}
	}
	if st.LastObservation == nil {
		st.LastObservation = map[string]time.Time{}
	}
	m := &Manager{state: st, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// GetState returns a copy of the current refresh state.
func (m *Manager) GetState() model.RefreshState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := *m.state
	st.LastRefreshAt = make(map[string]time.Time, len(m.state.LastRefreshAt))
	for k, v := range m.state.LastRefreshAt {
		st.LastRefreshAt[k] = v
	}
	st.LastObservation = make(map[string]time.Time, len(m.state.LastObservation))
	for k, v := range m.state.LastObservation {
		st.LastObservation[k] = v
	}
	return st
}

// MarkRefresh records a completed dataset refresh for one study along with
// the newest observation date it saw.
func (m *Manager) MarkRefresh(study string, latest time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastRefreshAt[study] = time.Now()
	if prev, ok := m.state.LastObservation[study]; !ok || latest.After(prev) {
		m.state.LastObservation[study] = latest
	}

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save refresh state: %v", err)
	}
}

// RecordShock notes the latest classified shock. It returns true when the
// shock is new, that is its date is later than the last one recorded, so
// callers can suppress duplicate alerts.
func (m *Manager) RecordShock(date time.Time, shockType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !date.After(m.state.LastShockDate) {
		return false
	}

	// Consecutive same-type days extend the run, anything else resets it.
	if shockType == m.state.LastShockType {
		m.state.ConsecutiveShockDays++
	} else {
		m.state.ConsecutiveShockDays = 1
	}
	m.state.LastShockDate = date
	m.state.LastShockType = shockType

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save refresh state after shock: %v", err)
	}
	return true
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
