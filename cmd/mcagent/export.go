package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mcagent/internal/templates"
)

const formatBundle = "bundle"

func (a *app) exportCmd() *cobra.Command {
	var (
		outputDir string
		days      int
		topN      int
		format    string
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "export [candidate_id]",
		Short: "Export a candidate as a PRD bundle or a single PRD",
		Long: `Export writes the PRD, spec and evidence pack files for a candidate.
With --format json|md|yaml only the PRD is written, in that format.

Examples:
  mcagent export candidate_0
  mcagent export candidate_0 --format md --output-dir ./prd
  mcagent export --all --top-n 3`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var prdFormat templates.Format
			if format != formatBundle {
				if all {
					return errors.New("--all only writes bundles")
				}
				f, err := templates.ParseFormat(format)
				if err != nil {
					return err
				}
				prdFormat = f
			}

			svc, cleanup, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			switch {
			case all:
				bundles, err := svc.ExportAll(ctx, outputDir, days, topN)
				if err != nil {
					return err
				}
				for _, b := range bundles {
					fmt.Fprintf(out, "%s\t%s\n", b.CandidateID, b.PRD)
				}
				return nil
			case prdFormat != "":
				path, err := svc.ExportPRD(ctx, args[0], outputDir, prdFormat, days)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, path)
				return nil
			}

			b, err := svc.ExportBundle(ctx, args[0], outputDir, days)
			if err != nil {
				return err
			}
			return printJSON(out, b)
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default from config)")
	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from config)")
	cmd.Flags().IntVar(&topN, "top-n", 0, "candidates to export with --all (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", formatBundle, "bundle, json, md or yaml")
	cmd.Flags().BoolVar(&all, "all", false, "export a bundle for every top candidate")
	return cmd
}
