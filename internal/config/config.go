// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds every tunable of the gait analysis pipeline: DSP cutoffs,
// windowing, activity classification thresholds, and cycle-detection
// constants. Load reads them from a tuning file and validates them; the
// stage packages do not read a Config and run on their own built-in
// defaults, which equal Default().
type Config struct {
	// Sampling
	SampleRateHz float64

	// Pre-filter
	PreFilterCutoffHz float64

	// Activity Segmenter windowing
	WindowSizeSeconds    float64
	WindowOverlapSeconds float64

	// Activity Segmenter classification thresholds
	StandingSMAMax        float64
	StandingStdMax        float64
	WalkingCadenceMin     float64
	WalkingCadenceMax     float64
	WalkingEnergyMax      float64
	RunningSMAMin         float64
	RunningCadenceMin     float64
	RunningEnergyMin      float64
	JumpingPeakThreshold  float64
	JumpingPeakCountMin   int
	JumpingVerticalVarMin float64
	StairsMagRatioMin     float64
	StairsCadenceMin      float64
	StairsCadenceMax      float64
	StairsSMAMin          float64
	FreqBandLowHz         float64
	FreqBandHighHz        float64

	// Activity-Aware Filter
	CutoffStandingHz        float64
	CutoffWalkingHz         float64
	CutoffStairsHz          float64
	CutoffRunningHz         float64
	CutoffJumpingHz         float64
	CutoffUnknownHz         float64
	TransitionDurationSeconds float64

	// Orientation Tracker
	MadgwickBeta float64

	// Cycle Detector
	MinStepDurationSeconds float64
	MaxStepDurationSeconds float64
	MSPeakHeightFactor     float64
	MSPeakPromFactor       float64
	HSSearchWindowSeconds  float64
	TOSearchWindowSeconds  float64
	TOPromFactor           float64
	EnableOutlierRemoval   bool
	OutlierStdThreshold    float64

	// Session Aggregator anomaly thresholds
	SevereROMDropFactor  float64
	ArrhythmiaLowFactor  float64
	ArrhythmiaHighFactor float64
	HighImpactThresholdG float64

	// Logging
	LogLevel string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the pipeline's factory numeric contract as a Config,
// usable directly without a config file.
func Default() *Config {
	return &Config{
		SampleRateHz:      125,
		PreFilterCutoffHz: 20.0,

		WindowSizeSeconds:    2.0,
		WindowOverlapSeconds: 0.5,

		StandingSMAMax:        0.5,
		StandingStdMax:        0.3,
		WalkingCadenceMin:     80,
		WalkingCadenceMax:     140,
		WalkingEnergyMax:      50.0,
		RunningSMAMin:         3.0,
		RunningCadenceMin:     140,
		RunningEnergyMin:      50.0,
		JumpingPeakThreshold:  2.5,
		JumpingPeakCountMin:   3,
		JumpingVerticalVarMin: 5.0,
		StairsMagRatioMin:     1.3,
		StairsCadenceMin:      60,
		StairsCadenceMax:      100,
		StairsSMAMin:          1.0,
		FreqBandLowHz:         0.5,
		FreqBandHighHz:        5.0,

		CutoffStandingHz:          2.0,
		CutoffWalkingHz:           6.0,
		CutoffStairsHz:            7.0,
		CutoffRunningHz:           12.0,
		CutoffJumpingHz:           15.0,
		CutoffUnknownHz:           8.0,
		TransitionDurationSeconds: 0.5,

		MadgwickBeta: 0.1,

		MinStepDurationSeconds: 0.5,
		MaxStepDurationSeconds: 2.5,
		MSPeakHeightFactor:     1.5,
		MSPeakPromFactor:       0.5,
		HSSearchWindowSeconds:  0.3,
		TOSearchWindowSeconds:  0.4,
		TOPromFactor:           0.2,
		EnableOutlierRemoval:   true,
		OutlierStdThreshold:    2.5,

		SevereROMDropFactor:  0.6,
		ArrhythmiaLowFactor:  0.5,
		ArrhythmiaHighFactor: 1.5,
		HighImpactThresholdG: 2.5,

		LogLevel: "info",
	}
}

// Load reads a flat KEY=VALUE tuning file, starting from Default() and
// overriding only the keys present.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setValue(key, value string) error {
	asFloat := func(name string) (float64, error) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		return v, nil
	}
	asInt := func(name string) (int, error) {
		v, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		return v, nil
	}
	asBool := func(name string) (bool, error) {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		return v, nil
	}

	switch key {
	case "SAMPLE_RATE_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("SAMPLE_RATE_HZ must be positive, got %v", v)
		}
		c.SampleRateHz = v
	case "PRE_FILTER_CUTOFF_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.PreFilterCutoffHz = v
	case "WINDOW_SIZE_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.WindowSizeSeconds = v
	case "WINDOW_OVERLAP_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.WindowOverlapSeconds = v
	case "STANDING_SMA_MAX":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StandingSMAMax = v
	case "STANDING_STD_MAX":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StandingStdMax = v
	case "WALKING_CADENCE_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.WalkingCadenceMin = v
	case "WALKING_CADENCE_MAX":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.WalkingCadenceMax = v
	case "WALKING_ENERGY_MAX":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.WalkingEnergyMax = v
	case "RUNNING_SMA_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.RunningSMAMin = v
	case "RUNNING_CADENCE_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.RunningCadenceMin = v
	case "RUNNING_ENERGY_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.RunningEnergyMin = v
	case "JUMPING_PEAK_THRESHOLD":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.JumpingPeakThreshold = v
	case "JUMPING_PEAK_COUNT_MIN":
		v, err := asInt(key)
		if err != nil {
			return err
		}
		c.JumpingPeakCountMin = v
	case "JUMPING_VERTICAL_VAR_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.JumpingVerticalVarMin = v
	case "STAIRS_MAG_RATIO_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StairsMagRatioMin = v
	case "STAIRS_CADENCE_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StairsCadenceMin = v
	case "STAIRS_CADENCE_MAX":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StairsCadenceMax = v
	case "STAIRS_SMA_MIN":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.StairsSMAMin = v
	case "FREQ_BAND_LOW_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.FreqBandLowHz = v
	case "FREQ_BAND_HIGH_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.FreqBandHighHz = v
	case "CUTOFF_STANDING_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffStandingHz = v
	case "CUTOFF_WALKING_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffWalkingHz = v
	case "CUTOFF_STAIRS_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffStairsHz = v
	case "CUTOFF_RUNNING_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffRunningHz = v
	case "CUTOFF_JUMPING_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffJumpingHz = v
	case "CUTOFF_UNKNOWN_HZ":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.CutoffUnknownHz = v
	case "TRANSITION_DURATION_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.TransitionDurationSeconds = v
	case "MADGWICK_BETA":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.MadgwickBeta = v
	case "MIN_STEP_DURATION_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.MinStepDurationSeconds = v
	case "MAX_STEP_DURATION_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.MaxStepDurationSeconds = v
	case "MS_PEAK_HEIGHT_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.MSPeakHeightFactor = v
	case "MS_PEAK_PROM_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.MSPeakPromFactor = v
	case "HS_SEARCH_WINDOW_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.HSSearchWindowSeconds = v
	case "TO_SEARCH_WINDOW_SECONDS":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.TOSearchWindowSeconds = v
	case "TO_PROM_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.TOPromFactor = v
	case "ENABLE_OUTLIER_REMOVAL":
		v, err := asBool(key)
		if err != nil {
			return err
		}
		c.EnableOutlierRemoval = v
	case "OUTLIER_STD_THRESHOLD":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.OutlierStdThreshold = v
	case "SEVERE_ROM_DROP_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.SevereROMDropFactor = v
	case "ARRHYTHMIA_LOW_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.ArrhythmiaLowFactor = v
	case "ARRHYTHMIA_HIGH_FACTOR":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.ArrhythmiaHighFactor = v
	case "HIGH_IMPACT_THRESHOLD_G":
		v, err := asFloat(key)
		if err != nil {
			return err
		}
		c.HighImpactThresholdG = v
	case "LOG_LEVEL":
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks internal consistency of the loaded tunables.
func (c *Config) validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("SAMPLE_RATE_HZ is required and must be positive")
	}
	if c.WindowOverlapSeconds >= c.WindowSizeSeconds {
		return fmt.Errorf("WINDOW_OVERLAP_SECONDS must be less than WINDOW_SIZE_SECONDS")
	}
	if c.MinStepDurationSeconds >= c.MaxStepDurationSeconds {
		return fmt.Errorf("MIN_STEP_DURATION_SECONDS must be less than MAX_STEP_DURATION_SECONDS")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
