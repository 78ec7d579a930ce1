package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mcagent/internal/behavior"
)

func (a *app) mineCmd() *cobra.Command {
	var (
		days    int
		topN    int
		asJSON  bool
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List recurring behavior candidates",
		Long: `Mine the activity window and print the most frequent behavior candidates.

Examples:
  mcagent mine
  mcagent mine --days 14 --top-n 10
  mcagent mine --refresh --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			listing, err := svc.ListCandidates(commandContext(cmd), behavior.ListOptions{
				Days:     days,
				TopN:     topN,
				UseCache: !refresh,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), listing)
			}
			return printListing(cmd.OutOrStdout(), listing)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().IntVar(&topN, "top-n", 0, "number of candidates (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "skip a fresh cache entry and fetch again")
	return cmd
}

func printListing(w io.Writer, l *behavior.Listing) error {
	fmt.Fprintf(w, "%d activities from %s over %d days\n\n", l.TotalActivities, l.Origin, l.Days)
	if len(l.Candidates) == 0 {
		fmt.Fprintln(w, "No behavior candidates found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFREQ\tLAST SEEN\tTITLE")
	for _, c := range l.Candidates {
		last := "N/A"
		if c.TimeRange.End != nil {
			last = *c.TimeRange.End
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.CandidateID, c.Freq, last, c.Title)
	}
	return tw.Flush()
}

func (a *app) evidenceCmd() *cobra.Command {
	var (
		days        int
		minExamples int
	)
	cmd := &cobra.Command{
		Use:   "evidence <candidate_id>",
		Short: "Print the evidence pack for a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Evidence(commandContext(cmd), args[0], behavior.EvidenceOptions{
				Days:        days,
				MinExamples: minExamples,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().IntVar(&minExamples, "min-examples", 0, "examples to include (default from config)")
	return cmd
}
