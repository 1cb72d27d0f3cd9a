package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"speakerline/internal/services"
	"speakerline/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Status),
					run.Stage,
					filepath.Base(run.AudioPath),
					strconv.Itoa(run.SentenceCount),
					humanize.Time(run.CreatedAt),
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("ID"), textCol("Status"), textCol("Stage"), textCol("Audio"), numCol("Sentences"), textCol("Started")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newVotesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "votes [run-id]",
		Short: "Show identity votes recorded for a run",
		Long: `Show the per-sample votes and resolved identity of every diarization
cluster for one run. The latest run is used when no id is given; an id
prefix is accepted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			run, err := lookupRun(cmd, st, args)
			if err != nil {
				return err
			}
			identities, err := st.ListIdentities(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			votes, err := st.ListVotes(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s (%s, %s)\n", run.ID, run.Status, filepath.Base(run.AudioPath))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			if len(identities) == 0 {
				fmt.Fprintln(out, "No identity votes recorded")
				return nil
			}

			rows := make([][]string, 0, len(identities))
			for _, ident := range identities {
				rows = append(rows, []string{
					ident.ClusterID,
					identityLabel(ident.Identity),
					fmt.Sprintf("%d/%d", ident.VoteCount, ident.SampleCount),
					tallySummary(votes, ident.ClusterID),
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("Cluster"), textCol("Identity"), numCol("Votes"), textCol("Tally")},
				rows,
			))
			return nil
		},
	}
}

func lookupRun(cmd *cobra.Command, st *store.Store, args []string) (*store.Run, error) {
	var (
		run *store.Run
		err error
	)
	if len(args) == 0 {
		run, err = st.LatestRun(cmd.Context())
	} else {
		run, err = st.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		target := "latest"
		if len(args) > 0 {
			target = args[0]
		}
		return nil, services.Wrap(services.ErrNotFound, "cli", "lookup run", target, errors.New("no matching run"))
	}
	return run, nil
}

func identityLabel(identity string) string {
	if identity == "" {
		return "(unresolved)"
	}
	return identity
}

// tallySummary renders "alice=3 bob=1" for a cluster, most votes first.
func tallySummary(votes []store.Vote, clusterID string) string {
	counts := make(map[string]int)
	for _, v := range votes {
		if v.ClusterID == clusterID {
			counts[v.Identity]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
