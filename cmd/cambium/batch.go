//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/codec"
	"github.com/farcloser/cambium/internal/output"
)

var (
	errBatchArgs    = errors.New("expected exactly one argument: input folder")
	errNoAudioFiles = errors.New("no supported audio files found")
	errBatchFailed  = errors.New("some files failed")
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Master every audio file in a folder",
		ArgsUsage: "<folder>",
		Flags: append(chainFlags(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output folder (default: <folder>/mastered)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
				Sources: cli.EnvVars("CAMBIUM_WORKERS"),
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Include subfolders, mirrored under the output folder",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a JSONL report (and a gzip copy) to this path",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw the progress bar",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errBatchArgs, cmd.NArg())
			}

			folder := cmd.Args().First()

			pipeline, err := pipelineFromFlags(cmd)
			if err != nil {
				return err
			}

			result, err := masterFolder(ctx, &batchRun{
				folder:    folder,
				outputDir: cmd.String("output"),
				report:    cmd.String("report"),
				recursive: cmd.Bool("recursive"),
				workers:   cmd.Int("workers"),
				progress:  !cmd.Bool("no-progress"),
				pipeline:  pipeline,
			})
			if err != nil {
				return err
			}

			if err := printData(cmd.String("format"),
				&format.Data{Object: folder, Meta: output.BatchToMap(result)}); err != nil {
				return err
			}

			if result.FilesFailed > 0 {
				return fmt.Errorf("%w: %d of %d", errBatchFailed, result.FilesFailed, len(result.Records))
			}

			return nil
		},
	}
}

type batchRun struct {
	folder    string
	outputDir string // <folder>/mastered when empty
	report    string // no report when empty
	recursive bool
	workers   int
	progress  bool
	pipeline  *cambium.Pipeline
}

// masterFolder discovers and masters the files of run.folder. An interrupted run still
// returns one record per file and still writes the report.
func masterFolder(ctx context.Context, run *batchRun) (*cambium.BatchResult, error) {
	outputDir := run.outputDir
	if outputDir == "" {
		outputDir = filepath.Join(run.folder, "mastered")
	}

	files, err := cambium.DiscoverFiles(run.folder, run.recursive)
	if err != nil {
		return nil, fmt.Errorf("scanning folder: %w", err)
	}

	// Previous results are not inputs.
	files = excludeDir(files, outputDir)

	if len(files) == 0 {
		return nil, fmt.Errorf("%q: %w (supported: %v)", run.folder, errNoAudioFiles, codec.Extensions())
	}

	workers := max(run.workers, 1)

	fmt.Fprintf(os.Stderr, "Found %d files to master with preset %s (%d workers)\n",
		len(files), run.pipeline.Config().Name, workers)

	opts := cambium.BatchOptions{Workers: workers}

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)

	if run.progress {
		// The bar must keep drawing while in-flight files finish after an interrupt.
		progress = mpb.NewWithContext(context.WithoutCancel(ctx), mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar = progress.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("Mastering: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)

		opts.OnProgress = func(_, _ int, _ *cambium.FileRecord) {
			bar.Increment()
		}
	}

	result := cambium.RunBatch(ctx, cambium.PlanJobs(run.folder, files, outputDir), run.pipeline.Processor(), opts)

	if progress != nil {
		// A bar left short by an interrupt never completes on its own.
		bar.Abort(false)
		progress.Wait()
	}

	if ctx.Err() != nil {
		skipped := 0

		for idx := range result.Records {
			if errors.Is(result.Records[idx].Err, cambium.ErrNotDispatched) {
				skipped++
			}
		}

		fmt.Fprintf(os.Stderr, "Interrupted: %d files were not started\n", skipped)
	}

	if run.report != "" {
		if err := writeReport(run.report, result); err != nil {
			return nil, err
		}

		fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", run.report, run.report)
	}

	return result, nil
}

func excludeDir(files []string, dir string) []string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return files
	}

	kept := files[:0]

	for _, file := range files {
		fileAbs, err := filepath.Abs(file)
		if err == nil {
			if rel, err := filepath.Rel(abs, fileAbs); err == nil && filepath.IsLocal(rel) {
				continue
			}
		}

		kept = append(kept, file)
	}

	return kept
}
