package model

import "time"

// RefreshState tracks what the daemon has already seen across restarts.
type RefreshState struct {
	LastRefreshAt        map[string]time.Time `json:"last_refresh_at"`
	LastObservation      map[string]time.Time `json:"last_observation"`
	LastShockDate        time.Time            `json:"last_shock_date"`
	LastShockType        string               `json:"last_shock_type"`
	ConsecutiveShockDays int                  `json:"consecutive_shock_days"`
	UpdatedAt            time.Time            `json:"updated_at"`
}
