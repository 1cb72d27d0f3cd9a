package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"speakerline/internal/config"
	"speakerline/internal/logging"
	"speakerline/internal/services"
)

func newVoiceprintCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voiceprint",
		Short: "Manage the enrolled speaker gallery",
	}
	cmd.AddCommand(newVoiceprintEnrollCommand(ctx))
	cmd.AddCommand(newVoiceprintListCommand(ctx))
	cmd.AddCommand(newVoiceprintRemoveCommand(ctx))
	return cmd
}

func newVoiceprintEnrollCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "enroll --identity NAME <clip>...",
		Short: "Embed reference clips and store them under an identity",
		Long: `Normalize each reference clip, compute a speaker embedding and add it to
the gallery under NAME. Several clips per identity improve matching; the
gallery compares against the mean of all clips enrolled for an identity.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return services.Wrap(services.ErrConfiguration, "voiceprint", "enroll", "--identity is required", nil)
			}
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

			workDir, err := os.MkdirTemp(cfg.Paths.WorkDir, ".enroll-")
			if err != nil {
				return fmt.Errorf("create enrollment dir: %w", err)
			}
			defer os.RemoveAll(workDir)
			models := serviceFactory(cfg, workDir)

			out := cmd.OutOrStdout()
			for i, arg := range args {
				clip, err := config.ExpandPath(arg)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "voiceprint", "resolve clip", arg, err)
				}
				if _, err := os.Stat(clip); err != nil {
					return services.Wrap(services.ErrNotFound, "voiceprint", "stat clip", clip, err)
				}
				normalized := filepath.Join(workDir, fmt.Sprintf("enroll-%03d.wav", i))
				if err := models.Audio.NormalizeAudio(cmd.Context(), clip, normalized); err != nil {
					return err
				}
				vector, err := models.Embedder.Embed(cmd.Context(), normalized)
				if err != nil {
					return err
				}
				id, err := st.AddVoiceprint(cmd.Context(), name, clip, vector)
				if err != nil {
					return err
				}
				logger.Info("voiceprint enrolled",
					logging.String(logging.FieldEventType, "voiceprint_enrolled"),
					logging.String("identity", name),
					logging.String("clip", clip),
					logging.Int("dimensions", len(vector)),
				)
				fmt.Fprintf(out, "Enrolled %s from %s (#%d, %d dims)\n", name, filepath.Base(clip), id, len(vector))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "identity", "", "Identity name the clips belong to")
	return cmd
}

func newVoiceprintListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enrolled voiceprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			prints, err := st.ListVoiceprints(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(prints) == 0 {
				fmt.Fprintln(out, "No voiceprints enrolled")
				return nil
			}
			rows := make([][]string, 0, len(prints))
			for _, vp := range prints {
				rows = append(rows, []string{
					strconv.FormatInt(vp.ID, 10),
					vp.Identity,
					strconv.Itoa(len(vp.Vector)),
					filepath.Base(vp.SourcePath),
					humanize.Time(vp.CreatedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{numCol("ID"), textCol("Identity"), numCol("Dims"), textCol("Source"), textCol("Enrolled")},
				rows,
			))
			return nil
		},
	}
}

func newVoiceprintRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identity>",
		Short: "Remove every voiceprint enrolled for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			removed, err := st.RemoveVoiceprints(cmd.Context(), name)
			if err != nil {
				return err
			}
			if removed == 0 {
				return services.Wrap(services.ErrNotFound, "voiceprint", "remove", name, errors.New("no voiceprints enrolled"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d voiceprint(s) for %s\n", removed, name)
			return nil
		},
	}
}
