package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the activity cache",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached activity batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := svc.CacheEntries()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tDAYS\tSOURCE\tACTIVITIES\tFETCHED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", e.Day, e.Days, e.Source, e.Count, e.FetchedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached activity batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.ClearCache()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", n)
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
