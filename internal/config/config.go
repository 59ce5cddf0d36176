package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultAnnouncements are the scheduled and emergency FOMC decision dates
// covering the default sample.
var defaultAnnouncements = []string{
	"2020-01-29", "2020-03-03", "2020-03-15", "2020-04-29", "2020-06-10",
	"2020-07-29", "2020-09-16", "2020-11-05", "2020-12-16",
	"2021-01-27", "2021-03-17", "2021-04-28", "2021-06-16", "2021-07-28",
	"2021-09-22", "2021-11-03", "2021-12-15",
	"2022-01-26", "2022-03-16", "2022-05-04", "2022-06-15", "2022-07-27",
	"2022-09-21", "2022-11-02", "2022-12-14",
	"2023-02-01", "2023-03-22", "2023-05-03", "2023-06-14", "2023-07-26",
	"2023-09-20", "2023-11-01", "2023-12-13",
	"2024-01-31", "2024-03-20", "2024-05-01", "2024-06-12", "2024-07-31",
	"2024-09-18", "2024-11-07", "2024-12-18",
	"2025-01-29", "2025-03-19", "2025-05-07", "2025-06-18", "2025-07-30",
	"2025-09-17", "2025-10-29", "2025-12-10",
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	FRED struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"fred"`
	Sample struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"sample"`
	Shock struct {
		ThresholdBP float64 `yaml:"threshold_bp"`
		BeforeDays  int     `yaml:"before_days"`
		AfterDays   int     `yaml:"after_days"`
	} `yaml:"shock"`
	Announcements []string `yaml:"announcements"`
	Simulation    struct {
		DaysAhead int `yaml:"days_ahead"`
	} `yaml:"simulation"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Paths struct {
		DataDir   string `yaml:"data_dir"`
		OutputDir string `yaml:"output_dir"`
		StateFile string `yaml:"state_file"`
	} `yaml:"paths"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file next to the binary is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("FRED_BASE_URL"); v != "" {
		cfg.FRED.BaseURL = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.FRED.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SHOCK_THRESHOLD_BP"); v != "" {
		if bp, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Shock.ThresholdBP = bp
		}
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Sample.Start == "" {
		cfg.Sample.Start = "2020-01-01"
	}
	if cfg.Sample.End == "" {
		cfg.Sample.End = "2025-12-31"
	}
	if cfg.Shock.ThresholdBP == 0 {
		cfg.Shock.ThresholdBP = 10
	}
	if cfg.Shock.BeforeDays == 0 {
		cfg.Shock.BeforeDays = 10
	}
	if cfg.Shock.AfterDays == 0 {
		cfg.Shock.AfterDays = 20
	}
	if len(cfg.Announcements) == 0 {
		cfg.Announcements = defaultAnnouncements
	}
	if cfg.Simulation.DaysAhead == 0 {
		cfg.Simulation.DaysAhead = 30
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 8 * * 6"
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "data"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "output"
	}
	if cfg.Paths.StateFile == "" {
		cfg.Paths.StateFile = "data/refresh_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/policy_pulse.db"
	}

	return cfg, nil
}

// Validate checks that required fields are set and parseable.
func (c *Config) Validate() error {
	if c.FRED.APIKey == "" {
		return fmt.Errorf("fred.api_key is required")
	}
	if c.Shock.ThresholdBP <= 0 {
		return fmt.Errorf("shock.threshold_bp must be positive")
	}
	if c.Shock.BeforeDays < 0 || c.Shock.AfterDays < 0 {
		return fmt.Errorf("shock window days must not be negative")
	}
	if _, _, err := c.SampleRange(); err != nil {
		return err
	}
	if _, err := c.AnnouncementDates(); err != nil {
		return err
	}
	return nil
}

// SampleRange parses the configured sample start and end dates.
func (c *Config) SampleRange() (start, end time.Time, err error) {
	start, err = time.ParseInLocation("2006-01-02", c.Sample.Start, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("sample.start: %w", err)
	}
	end, err = time.ParseInLocation("2006-01-02", c.Sample.End, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("sample.end: %w", err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("sample.end %s before sample.start %s", c.Sample.End, c.Sample.Start)
	}
	return start, end, nil
}

// AnnouncementDates parses the configured announcement calendar.
func (c *Config) AnnouncementDates() ([]time.Time, error) {
	out := make([]time.Time, 0, len(c.Announcements))
	for _, s := range c.Announcements {
		d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("announcements: parse %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, nil
}
