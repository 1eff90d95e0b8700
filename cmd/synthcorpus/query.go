package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/synthcorpus/pkg/types"
)

var (
	recentLimit  int
	topLimit     int
	similarLimit int
	similarBow   []string
	similarKey   bool
)

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.GetRecent(cmd.Context(), recentLimit)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "maximum number of entries (0 for all)")
	return cmd
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top <func>",
		Short: "Show the best attempts for a function",
		Long: `Show the best attempts for a function: perfect solutions first, then
lowest score, then newest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.GetTopByFunc(cmd.Context(), args[0], topLimit)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "maximum number of entries (0 for all)")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <signature> [description]",
		Short: "Show stored attempts most similar to a target",
		Long: `Show stored attempts most similar to a target signature and description.

Examples:
  # From a human-readable signature
  synthcorpus similar "parse_int(s: str) -> int" "parse an integer from a string"

  # From a prepared signature key and token bag
  synthcorpus similar --key "parse_int|str|int" --bow parse,integer`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			limit := similarLimit
			if limit <= 0 {
				limit = a.cfg.Similarity.DefaultLimit
			}

			engine := a.engine()
			var results []types.SimilarResult
			if similarKey {
				results, err = engine.GetSimilar(cmd.Context(), args[0], similarBow, limit)
			} else {
				description := ""
				if len(args) > 1 {
					description = args[1]
				}
				results, err = engine.GetSimilarText(cmd.Context(), args[0], description, limit)
			}
			if err != nil {
				return err
			}
			return printSimilar(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVarP(&similarLimit, "limit", "n", 0, "maximum number of results (default from config)")
	cmd.Flags().BoolVar(&similarKey, "key", false, "treat the first argument as a name|args|return key")
	cmd.Flags().StringSliceVar(&similarBow, "bow", nil, "target tokens when --key is set")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.store.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, status)
			}
			fmt.Fprintf(out, "Schema version:  %s\n", status.SchemaVersion)
			fmt.Fprintf(out, "Entries:         %d\n", status.TotalEntries)
			fmt.Fprintf(out, "Perfect entries: %d\n", status.PerfectEntries)
			fmt.Fprintf(out, "Functions:       %d\n", status.DistinctFuncs)
			fmt.Fprintf(out, "Latest:          %s\n", status.LatestTimestamp)
			fmt.Fprintf(out, "WAL enabled:     %v\n", status.Health.WALEnabled)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []types.Entry) error {
	if jsonOutput {
		return writeJSON(w, entries)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIMESTAMP\tFUNC\tPASSED\tSCORE\tSIG KEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.4f\t%s\n", e.ID, e.Timestamp, e.FuncName, e.Passed, e.Total, e.Score, e.SigKey)
	}
	return tw.Flush()
}

func printSimilar(w io.Writer, results []types.SimilarResult) error {
	if jsonOutput {
		return writeJSON(w, results)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SIMILARITY\tRET\tARGS\tJACCARD\tID\tFUNC\tPASSED")
	for _, r := range results {
		fmt.Fprintf(tw, "%.3f\t%.0f\t%.0f\t%.3f\t%s\t%s\t%d/%d\n",
			r.Similarity, r.Breakdown.ReturnMatch, r.Breakdown.ArgMatch, r.Breakdown.JaccardScore,
			r.Entry.ID, r.Entry.FuncName, r.Entry.Passed, r.Entry.Total)
	}
	return tw.Flush()
}
