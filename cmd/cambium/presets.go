//nolint:wrapcheck
package main

import (
	"context"
	"fmt"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/output"
)

func presetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "presets",
		Usage: "List the mastering presets",
		Flags: []cli.Flag{formatFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			formatName := cmd.String("format")
			data := make([]*format.Data, 0, len(cambium.Presets()))

			for _, preset := range cambium.Presets() {
				config := preset.Config()
				meta := output.PresetToMap(config)

				if formatName == "console" {
					compression := "off"
					if config.UseCompression {
						compression = fmt.Sprintf("%.1f:1 above %.0f dB", config.CompRatio, config.CompThresholdDb)
					}

					meta = map[string]any{
						"description": preset.Description(),
						"target":      fmt.Sprintf("%.0f LUFS", config.TargetLUFS),
						"ceiling":     fmt.Sprintf("%.1f dBTP", config.TruePeakDbtp),
						"compression": compression,
					}
				}

				data = append(data, &format.Data{Object: preset.String(), Meta: meta})
			}

			return printData(formatName, data...)
		},
	}
}
