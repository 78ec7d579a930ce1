package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/mcagent/internal/inspect"
	"github.com/HendryAvila/mcagent/internal/server"
)

// exitCodeError carries an inspected command's exit code back to main.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("inspected command exited with code %d", e.code)
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		outputDir string
		timeout   = inspect.DefaultTimeout
	)
	cmd := &cobra.Command{
		Use:   "inspect [flags] -- <command> [args...]",
		Short: "Run a command and record MineContext context when it fails",
		Long: `Runs the command and writes trajectory_<timestamp>.json with its exit code and
output. When the command exits non-zero the current MineContext screen context
is captured into the trajectory as well. A single argument is run through
"sh -c". mcagent exits with the command's exit code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			svc, cleanup, err := server.NewService(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			in := inspect.New(svc, inspect.Options{Timeout: timeout, OutputDir: outputDir}, logger)
			traj, err := in.Run(commandContext(cmd), args)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Trajectory saved to %s\n", traj.Path)
			if traj.Failed() {
				return &exitCodeError{code: traj.ExitCode}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory for the trajectory file")
	cmd.Flags().DurationVar(&timeout, "timeout", inspect.DefaultTimeout, "kill the command after this long")
	return cmd
}
