//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/cambium"
)

var errMasterArgs = errors.New("expected an input file and an optional output file")

func masterCommand() *cli.Command {
	return &cli.Command{
		Name:      "master",
		Usage:     "Master a single audio file to a 16-bit WAV",
		ArgsUsage: "<input> [<output>]",
		Flags:     append(chainFlags(), formatFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 || cmd.NArg() > 2 {
				return fmt.Errorf("%w: got %d", errMasterArgs, cmd.NArg())
			}

			input := cmd.Args().Get(0)

			output := cmd.Args().Get(1)
			if output == "" {
				output = cambium.OutputPath(input, filepath.Dir(input))
			}

			if filepath.Clean(output) == filepath.Clean(input) {
				return fmt.Errorf("%w: output would overwrite the input", errMasterArgs)
			}

			pipeline, err := pipelineFromFlags(cmd)
			if err != nil {
				return err
			}

			result, err := pipeline.MasterFile(ctx, input, output)
			if err != nil {
				return err
			}

			return printData(cmd.String("format"), resultData(output, result.Result, cmd.String("format")))
		},
	}
}
