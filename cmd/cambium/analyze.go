//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/codec"
	"github.com/farcloser/cambium/internal/output"
)

var (
	errAnalyzeArgs = errors.New("expected exactly one argument: file path")
	errCompareArgs = errors.New("expected exactly two arguments: original and mastered file")
)

func analysisFlags() []cli.Flag {
	return []cli.Flag{
		formatFlag(),
		&cli.FloatFlag{
			Name:  "clip-threshold",
			Usage: "Sample magnitude counted as clipped",
			Value: cambium.DefaultAnalysisOptions().ClippingThreshold,
		},
	}
}

func analysisOptions(cmd *cli.Command) cambium.AnalysisOptions {
	opts := cambium.DefaultAnalysisOptions()
	opts.ClippingThreshold = cmd.Float("clip-threshold")

	return opts
}

func analyzeFile(ctx context.Context, path string, opts cambium.AnalysisOptions) (*cambium.Analysis, error) {
	buf, _, err := codec.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cambium.ErrIngest, err)
	}

	return cambium.Analyze(ctx, buf, opts)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Measure loudness, peaks and stereo field, and suggest a preset",
		ArgsUsage: "<file>",
		Flags:     analysisFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errAnalyzeArgs, cmd.NArg())
			}

			path := cmd.Args().First()

			analysis, err := analyzeFile(ctx, path, analysisOptions(cmd))
			if err != nil {
				return err
			}

			return printData(cmd.String("format"), analysisData(path, analysis, cmd.String("format")))
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare an original with its master",
		ArgsUsage: "<original> <mastered>",
		Flags:     analysisFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("%w: got %d", errCompareArgs, cmd.NArg())
			}

			opts := analysisOptions(cmd)

			original, err := analyzeFile(ctx, cmd.Args().Get(0), opts)
			if err != nil {
				return err
			}

			mastered, err := analyzeFile(ctx, cmd.Args().Get(1), opts)
			if err != nil {
				return err
			}

			comparison := cambium.Compare(original, mastered)
			formatName := cmd.String("format")
			object := cmd.Args().Get(0) + " -> " + cmd.Args().Get(1)

			if formatName != "console" {
				return printData(formatName, &format.Data{Object: object, Meta: output.ComparisonToMap(comparison)})
			}

			warnings := make([]any, 0, len(comparison.Warnings))
			for _, warning := range comparison.Warnings {
				warnings = append(warnings, "!! "+warning)
			}

			meta := map[string]any{
				"loudness": fmt.Sprintf("%s -> %s",
					db(original.Loudness.Integrated.LUFS, "LUFS"), db(mastered.Loudness.Integrated.LUFS, "LUFS")),
				"true_peak": fmt.Sprintf("%s -> %s (%+.2f dB)",
					db(original.TruePeak.TruePeakDb, "dBTP"), db(mastered.TruePeak.TruePeakDb, "dBTP"), comparison.TruePeakDeltaDb),
				"crest_factor": fmt.Sprintf("%s -> %s (%+.2f dB)",
					db(original.Levels.CrestFactorDb, "dB"), db(mastered.Levels.CrestFactorDb, "dB"), comparison.CrestDeltaDb),
				"clipping": fmt.Sprintf("%.4f%% -> %.4f%%", original.Clipping.Percentage, mastered.Clipping.Percentage),
				"warnings": warnings,
			}

			if original.Stereo != nil && mastered.Stereo != nil {
				meta["stereo_width"] = fmt.Sprintf("%.3f -> %.3f", original.Stereo.Width, mastered.Stereo.Width)
				meta["balance"] = fmt.Sprintf("%+.3f -> %+.3f", original.Stereo.Balance, mastered.Stereo.Balance)
			}

			return printData(formatName, &format.Data{Object: object, Meta: meta})
		},
	}
}
