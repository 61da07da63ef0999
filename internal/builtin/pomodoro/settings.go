package pomodoro

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SettingsFile is stored in the plugin folder.
const SettingsFile = "config.json"

// Settings are the timer lengths in seconds plus the saved notes.
type Settings struct {
	Pomodoro   int    `json:"pomodoro_time"`
	ShortBreak int    `json:"short_break_time"`
	LongBreak  int    `json:"long_break_time"`
	Notes      string `json:"notes"`
}

// DefaultSettings returns 25/5/15 minute periods.
func DefaultSettings() Settings {
	return Settings{
		Pomodoro:   25 * 60,
		ShortBreak: 5 * 60,
		LongBreak:  15 * 60,
	}
}

// LoadSettings reads dir/config.json. A missing file yields the defaults and writes them.
func LoadSettings(dir string) (Settings, error) {
	path := filepath.Join(dir, SettingsFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := DefaultSettings()
		return s, SaveSettings(dir, s)
	}
	if err != nil {
		return DefaultSettings(), err
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Pomodoro <= 0 || s.ShortBreak <= 0 || s.LongBreak <= 0 {
		return DefaultSettings(), fmt.Errorf("parse %s: periods must be positive", path)
	}
	return s, nil
}

// SaveSettings writes s to dir/config.json.
func SaveSettings(dir string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SettingsFile), data, 0644)
}
