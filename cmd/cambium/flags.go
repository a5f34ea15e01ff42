//nolint:wrapcheck
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/resample"
)

func presetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "preset",
		Aliases: []string{"p"},
		Usage:   "Mastering preset: default, gentle, suno, aggressive, dynamic, podcast",
		Value:   cambium.PresetDefault.String(),
		Sources: cli.EnvVars("CAMBIUM_PRESET"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: console, json, markdown",
		Value:   "console",
		Sources: cli.EnvVars("CAMBIUM_FORMAT"),
	}
}

func chainFlags() []cli.Flag {
	return []cli.Flag{
		presetFlag(),
		&cli.FloatFlag{
			Name:  "target-lufs",
			Usage: "Override the preset integrated loudness target (LUFS)",
		},
		&cli.FloatFlag{
			Name:  "ceiling",
			Usage: "Override the preset true-peak ceiling (dBTP, below 0)",
		},
		&cli.IntFlag{
			Name:    "rate",
			Usage:   "Working and output sample rate: 44100 or 48000",
			Value:   cambium.DefaultOptions().WorkingRate,
			Sources: cli.EnvVars("CAMBIUM_RATE"),
		},
		&cli.StringFlag{
			Name:  "resample-quality",
			Usage: "Resampling quality: quick, low, medium, high, very-high",
			Value: "high",
		},
	}
}

// pipelineFromFlags builds the pipeline described by chainFlags.
// Unknown presets are rejected rather than replaced by the default.
func pipelineFromFlags(cmd *cli.Command) (*cambium.Pipeline, error) {
	preset, err := cambium.ParsePreset(cmd.String("preset"))
	if err != nil {
		return nil, err
	}

	var overrides cambium.Overrides

	if cmd.IsSet("target-lufs") {
		target := cmd.Float("target-lufs")
		overrides.TargetLUFS = &target
	}

	if cmd.IsSet("ceiling") {
		ceiling := cmd.Float("ceiling")
		overrides.TruePeakDbtp = &ceiling
	}

	config, err := preset.Config().WithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	quality, err := resample.ParseQuality(cmd.String("resample-quality"))
	if err != nil {
		return nil, err
	}

	opts := cambium.DefaultOptions()
	opts.WorkingRate = cmd.Int("rate")
	opts.ResampleQuality = quality

	return cambium.NewPipeline(config, opts)
}
