package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speakerline/internal/config"
	"speakerline/internal/pipeline"
	"speakerline/internal/preflight"
	"speakerline/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var fresh bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run <audio>",
		Short: "Transcribe, diarize and export a speaker-attributed transcript",
		Long: `Run the full pipeline on one audio file.

Stage artifacts are kept under paths.work_dir/<audio name>/ and reused on the
next run for the same file. Pass --fresh to recompute every stage.`,
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
			if outputDir != "" {
				if outputDir, err = config.ExpandPath(outputDir); err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "resolve output dir", outputDir, err)
				}
			}

			p := pipeline.New(cfg, st, logger, pipeline.WithServices(serviceFactory))
			result, err := p.Run(cmd.Context(), pipeline.Request{
				AudioPath: args[0],
				OutputDir: outputDir,
				Fresh:     fresh,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s complete\n", result.RunID)
			fmt.Fprintf(out, "  Sentences: %d\n", len(result.Sentences))
			fmt.Fprintf(out, "  Speakers:  %d\n", result.Speakers)
			if result.TranscriptPath != "" {
				fmt.Fprintf(out, "  Transcript: %s\n", result.TranscriptPath)
			}
			if result.SubtitlePath != "" {
				fmt.Fprintf(out, "  Subtitles:  %s\n", result.SubtitlePath)
			}
			for _, cluster := range sortedKeys(result.Identities) {
				fmt.Fprintf(out, "  %s -> %s\n", cluster, result.Identities[cluster])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore cached stage artifacts")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the transcript and subtitles (overrides paths.output_dir)")
	return cmd
}

// requirePreflight prints failing checks and returns a configuration error
// when any check failed.
func requirePreflight(cmd *cobra.Command, results []preflight.Result) error {
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", r.Name, r.Detail)
		names = append(names, r.Name)
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "checks", strings.Join(names, ", "),
		fmt.Errorf("%d preflight check(s) failed; run `speakerline doctor` for details", len(failed)))
}
