package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/cambium/version"
)

func main() {
	// An interrupt stops batch dispatch. Files already started are finished and reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// A second interrupt gets the default behavior and kills the process.
	context.AfterFunc(ctx, stop)

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Loudness-targeted, true-peak safe audio mastering",
		Version: version.Version() + " " + version.Commit(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("CAMBIUM_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}

			return ctx, nil
		},
		Commands: []*cli.Command{
			masterCommand(),
			batchCommand(),
			analyzeCommand(),
			compareCommand(),
			presetsCommand(),
		},
	}

	err := appl.Run(ctx, os.Args)

	stop()

	if err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
