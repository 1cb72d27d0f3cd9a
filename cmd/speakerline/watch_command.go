package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"speakerline/internal/config"
	"speakerline/internal/logging"
	"speakerline/internal/pipeline"
	"speakerline/internal/preflight"
	"speakerline/internal/services"
	"speakerline/internal/staging"
	"speakerline/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	opts := watcher.DefaultOptions()
	var extensions string
	var noBackfill bool
	var pruneAfter time.Duration

	cmd := &cobra.Command{
		Use:   "watch <inbox>",
		Short: "Process audio files as they arrive in a directory",
		Long: `Watch an inbox directory and run the pipeline for every new audio file.

Files already present are processed first unless --no-backfill is set.
Finished files move to processed/, failed ones to failed/. With --prune-after,
work directories untouched for longer than the given duration are removed at
startup and after each file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := requirePreflight(cmd, preflight.RunAll(cmd.Context(), cfg, st)); err != nil {
				return err
			}
			inbox, err := config.ExpandPath(args[0])
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "resolve inbox", args[0], err)
			}

			if n, err := st.MarkInterruptedRuns(cmd.Context()); err != nil {
				return err
			} else if n > 0 {
				logging.WarnWithContext(logger, "marked interrupted runs as failed", "runs_interrupted",
					logging.Int64("count", n),
					logging.String(logging.FieldImpact, "those files need to be dropped into the inbox again"),
				)
			}

			prune := func(ctx context.Context) {
				if pruneAfter > 0 {
					staging.Prune(ctx, cfg.Paths.WorkDir, pruneAfter, logger)
				}
			}
			prune(cmd.Context())

			p := pipeline.New(cfg, st, logger, pipeline.WithServices(serviceFactory))
			handler := func(ctx context.Context, path string) error {
				defer prune(ctx)
				_, err := p.Run(ctx, pipeline.Request{AudioPath: path})
				return err
			}

			if extensions != "" {
				opts.Extensions = strings.Split(extensions, ",")
			}
			opts.Backfill = !noBackfill
			w, err := watcher.New(inbox, handler, logger, opts)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", inbox)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&extensions, "ext", "", "Comma-separated audio extensions to accept (default .wav)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", opts.Concurrency, "Files processed in parallel")
	cmd.Flags().BoolVar(&noBackfill, "no-backfill", false, "Ignore files already in the inbox")
	cmd.Flags().DurationVar(&pruneAfter, "prune-after", 0, "Remove work directories idle longer than this (0 keeps them)")
	return cmd
}
