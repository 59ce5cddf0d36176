package state

import (
	"encoding/json"
	"os"
	"time"

	"PolicyPulse/internal/model"
)

// LoadState reads the refresh state from a JSON file. Returns a zero state
// if the file doesn't exist.
func LoadState(filePath string) (*model.RefreshState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.RefreshState{}, nil
		}
		return nil, err
	}
	var state model.RefreshState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the refresh state to a JSON file.
func SaveState(filePath string, state *model.RefreshState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
