package cambium

import (
	"fmt"
	"math"
	"strings"
)

/*
Usage:

config := cambium.PresetDefault.Config()

preset, err := cambium.ParsePreset("podcast")
config = preset.Config()

// Custom loudness target on top of a preset
target := -12.0
config, err = cambium.PresetDynamic.Config().WithOverrides(cambium.Overrides{TargetLUFS: &target})

pipeline, err := cambium.NewPipeline(config, cambium.DefaultOptions())
*/

// Preset is a named mastering configuration.
type Preset int

const (
	PresetDefault Preset = iota
	PresetGentle
	PresetSuno
	PresetAggressive
	PresetDynamic
	PresetPodcast
)

func (p Preset) String() string {
	switch p {
	case PresetDefault:
		return "default"
	case PresetGentle:
		return "gentle"
	case PresetSuno:
		return "suno"
	case PresetAggressive:
		return "aggressive"
	case PresetDynamic:
		return "dynamic"
	case PresetPodcast:
		return "podcast"
	}

	return "unknown"
}

// Description is a one-line summary for listings.
func (p Preset) Description() string {
	switch p {
	case PresetDefault:
		return "Balanced master for most material"
	case PresetGentle:
		return "Loudness and peak control only, no compression"
	case PresetSuno:
		return "For AI generated tracks that are already compressed"
	case PresetAggressive:
		return "Loud and dense, for EDM and modern pop"
	case PresetDynamic:
		return "Keeps dynamics, for acoustic, jazz and classical"
	case PresetPodcast:
		return "Speech, evened out at -16 LUFS"
	}

	return ""
}

// Presets returns the catalog in display order.
func Presets() []Preset {
	return []Preset{PresetDefault, PresetGentle, PresetSuno, PresetAggressive, PresetDynamic, PresetPodcast}
}

// ParsePreset converts a name to a Preset. Matching ignores case and surrounding spaces.
func ParsePreset(name string) (Preset, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	for _, preset := range Presets() {
		if preset.String() == normalized {
			return preset, nil
		}
	}

	names := make([]string, 0, len(Presets()))
	for _, preset := range Presets() {
		names = append(names, preset.String())
	}

	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownPreset, name, strings.Join(names, ", "))
}

// PresetConfig holds every parameter of the chain.
// Attack and release are carried for display: the compressor is static and ignores them.
type PresetConfig struct {
	Name            string  `json:"name"`
	TargetLUFS      float64 `json:"target_lufs"`
	TruePeakDbtp    float64 `json:"true_peak"`
	CompThresholdDb float64 `json:"comp_threshold"`
	CompRatio       float64 `json:"comp_ratio"`
	CompAttackMs    float64 `json:"comp_attack"`
	CompReleaseMs   float64 `json:"comp_release"`
	UseCompression  bool    `json:"use_compression"`
}

// Config returns the parameters of the preset.
func (p Preset) Config() PresetConfig {
	config := PresetConfig{
		Name:            p.String(),
		TargetLUFS:      -10,
		TruePeakDbtp:    -1,
		CompThresholdDb: -15,
		CompRatio:       2,
		CompAttackMs:    10,
		CompReleaseMs:   150,
		UseCompression:  true,
	}

	switch p {
	case PresetDefault:
	case PresetGentle, PresetSuno:
		config.CompAttackMs = 15
		config.CompReleaseMs = 200
		config.UseCompression = false
	case PresetAggressive:
		config.TargetLUFS = -8
		config.CompThresholdDb = -10
		config.CompRatio = 4
		config.CompAttackMs = 5
		config.CompReleaseMs = 100
	case PresetDynamic:
		config.TargetLUFS = -14
		config.CompThresholdDb = -18
		config.CompRatio = 1.5
		config.CompAttackMs = 20
		config.CompReleaseMs = 300
	case PresetPodcast:
		config.TargetLUFS = -16
		config.CompThresholdDb = -20
		config.CompRatio = 3
		config.CompAttackMs = 5
		config.CompReleaseMs = 100
	}

	return config
}

// Validate checks the ranges the chain relies on.
func (c PresetConfig) Validate() error {
	for name, value := range map[string]float64{
		"target_lufs":    c.TargetLUFS,
		"true_peak":      c.TruePeakDbtp,
		"comp_threshold": c.CompThresholdDb,
		"comp_ratio":     c.CompRatio,
		"comp_attack":    c.CompAttackMs,
		"comp_release":   c.CompReleaseMs,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidConfig, name)
		}
	}

	if c.TruePeakDbtp >= 0 {
		return fmt.Errorf("%w: true_peak must be below 0 dBTP, got %.2f", ErrInvalidConfig, c.TruePeakDbtp)
	}

	if c.TargetLUFS >= 0 {
		return fmt.Errorf("%w: target_lufs must be below 0 LUFS, got %.2f", ErrInvalidConfig, c.TargetLUFS)
	}

	if c.CompRatio < 1 {
		return fmt.Errorf("%w: comp_ratio must be >= 1, got %.2f", ErrInvalidConfig, c.CompRatio)
	}

	if c.CompAttackMs < 0 || c.CompReleaseMs < 0 {
		return fmt.Errorf("%w: attack and release must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Overrides replaces selected preset values. Nil fields keep the preset value.
type Overrides struct {
	TargetLUFS   *float64
	TruePeakDbtp *float64
}

// WithOverrides returns a copy of c with the overrides applied, validated.
func (c PresetConfig) WithOverrides(overrides Overrides) (PresetConfig, error) {
	if overrides.TargetLUFS != nil {
		c.TargetLUFS = *overrides.TargetLUFS
	}

	if overrides.TruePeakDbtp != nil {
		c.TruePeakDbtp = *overrides.TruePeakDbtp
	}

	if err := c.Validate(); err != nil {
		return PresetConfig{}, err
	}

	return c, nil
}
