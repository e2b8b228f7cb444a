// ABOUTME: Configuration management for analyzer tuning parameters
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AnalyzerConfig holds all tunable analysis parameters.
type AnalyzerConfig struct {
	// Pattern/facing detection
	MonoThreshold    int      `toml:"mono_threshold"`
	CustomPatterns   []string `toml:"custom_patterns"`
	ComputePatterns  bool     `toml:"compute_pattern_counts"`
	ComputeTech      bool     `toml:"compute_tech_counts"`
	TranslateMarkers bool     `toml:"translate_markers"`
	ComputeRadar     bool     `toml:"compute_radar_values"`

	// Parity solver penalty weights
	MineWeight             float64 `toml:"mine_weight"`
	HoldSwitchWeight       float64 `toml:"hold_switch_weight"`
	BracketTapWeight       float64 `toml:"bracket_tap_weight"`
	BracketJackWeight      float64 `toml:"bracket_jack_weight"`
	DoubleStepWeight       float64 `toml:"double_step_weight"`
	SlowBracketWeight      float64 `toml:"slow_bracket_weight"`
	TwistedFootWeight      float64 `toml:"twisted_foot_weight"`
	FacingWeight           float64 `toml:"facing_weight"`
	SpinWeight             float64 `toml:"spin_weight"`
	FootswitchWeight       float64 `toml:"footswitch_weight"`
	SideswitchWeight       float64 `toml:"sideswitch_weight"`
	JackWeight             float64 `toml:"jack_weight"`
	DistanceWeight         float64 `toml:"distance_weight"`
	MissedFootswitchWeight float64 `toml:"missed_footswitch_weight"`

	// Parity solver thresholds (seconds)
	JackThreshold          float64 `toml:"jack_threshold"`
	SlowBracketThreshold   float64 `toml:"slow_bracket_threshold"`
	SlowFootswitchLow      float64 `toml:"slow_footswitch_low"`
	SlowFootswitchHigh     float64 `toml:"slow_footswitch_high"`
	JackCutoff             float64 `toml:"jack_cutoff"`
	FootswitchCutoff       float64 `toml:"footswitch_cutoff"`
	DoubleStepCutoff       float64 `toml:"double_step_cutoff"`
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MonoThreshold:    6,
		CustomPatterns:   nil,
		ComputePatterns:  true,
		ComputeTech:      true,
		TranslateMarkers: false,
		ComputeRadar:     false,

		MineWeight:             10000,
		HoldSwitchWeight:       55,
		BracketTapWeight:       400,
		BracketJackWeight:      20,
		DoubleStepWeight:       850,
		SlowBracketWeight:      300,
		TwistedFootWeight:      100000,
		FacingWeight:           2,
		SpinWeight:             1000,
		FootswitchWeight:       325,
		SideswitchWeight:       130,
		JackWeight:             30,
		DistanceWeight:         6,
		MissedFootswitchWeight: 500,

		JackThreshold:        0.1,
		SlowBracketThreshold: 0.15,
		SlowFootswitchLow:    0.2,
		SlowFootswitchHigh:   0.4,
		JackCutoff:           0.176,
		FootswitchCutoff:     0.3,
		DoubleStepCutoff:     0.235,
	}
}

// LoadConfig loads configuration from a TOML file.
// If the file doesn't exist or fails to load, returns default config.
func LoadConfig(path string) (AnalyzerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a TOML file.
func SaveConfig(path string, config AnalyzerConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", err)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path.
// First tries current directory, then falls back to
// ~/.config/simfile-analyzer/config.toml.
func GetConfigPath() string {
	if _, err := os.Stat("./simfile-analyzer.toml"); err == nil {
		return "./simfile-analyzer.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./simfile-analyzer.toml"
	}

	return filepath.Join(home, ".config", "simfile-analyzer", "config.toml")
}
