package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"speakerline/internal/config"
	"speakerline/internal/pipeline"
	"speakerline/internal/services"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.ExportRequest

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fuse existing word and speaker artifacts into a transcript",
		Long: `Run word mapping, punctuation, realignment and export on saved artifacts
without invoking any model.

--words accepts a WhisperX JSON document or a plain array of
{"word", "start", "end"} objects. --rttm is a speaker timeline. --labels is an
optional JSON array with one punctuation label per word.`,
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
			for _, p := range []*string{&req.WordsPath, &req.RTTMPath, &req.LabelsPath, &req.OutputDir} {
				if *p == "" {
					continue
				}
				expanded, err := config.ExpandPath(*p)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "resolve path", *p, err)
				}
				*p = expanded
			}

			outputs, err := pipeline.ExportArtifacts(cmd.Context(), cfg, req, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outputs.TranscriptPath != "" {
				fmt.Fprintf(out, "Transcript: %s\n", outputs.TranscriptPath)
			}
			if outputs.SubtitlePath != "" {
				fmt.Fprintf(out, "Subtitles:  %s (%d cues)\n", outputs.SubtitlePath, outputs.CueCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.WordsPath, "words", "", "Word timestamp JSON")
	cmd.Flags().StringVar(&req.RTTMPath, "rttm", "", "Speaker timeline in RTTM format")
	cmd.Flags().StringVar(&req.LabelsPath, "labels", "", "Optional punctuation labels JSON")
	cmd.Flags().StringVarP(&req.OutputDir, "output-dir", "o", "", "Output directory (defaults to the RTTM directory)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Output file stem (defaults to the RTTM file stem)")
	_ = cmd.MarkFlagRequired("words")
	_ = cmd.MarkFlagRequired("rttm")
	return cmd
}
