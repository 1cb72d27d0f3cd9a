package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"speakerline/internal/staging"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Inspect and prune per-audio work directories",
	}
	cmd.AddCommand(newWorkListCommand(ctx))
	cmd.AddCommand(newWorkPruneCommand(ctx))
	return cmd
}

func newWorkListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List work directories with their age and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.List(cfg.Paths.WorkDir)
			if err != nil {
				return fmt.Errorf("list work directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No work directories found")
				return nil
			}

			fmt.Fprintf(out, "Work directory: %s\n\n", cfg.Paths.WorkDir)
			var total int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				total += dir.Size
				rows = append(rows, []string{
					dir.Name,
					humanize.Time(dir.ModTime),
					humanize.Bytes(uint64(dir.Size)),
					yesNo(dir.Locked),
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("Name"), textCol("Modified"), numCol("Size"), textCol("In use")},
				rows,
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(total)))
			return nil
		},
	}
}

func newWorkPruneCommand(ctx *commandContext) *cobra.Command {
	olderThan := 7 * 24 * time.Hour

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove work directories idle longer than --older-than",
		Long: `Remove per-audio work directories whose checkpoints have not changed for
longer than --older-than. Directories locked by a running pipeline are kept.
Removing a work directory only discards cached stage artifacts; the next run
for that file recomputes them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			result := staging.Prune(cmd.Context(), cfg.Paths.WorkDir, olderThan, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d work directories", len(result.Removed))
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, ", %d in use", len(result.Skipped))
			}
			fmt.Fprintln(out)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d work directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", olderThan, "Minimum idle time before a directory is removed")
	return cmd
}
