package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"editorial/internal/api"
	"editorial/internal/daemonctl"
	"editorial/internal/manuscript"
	"editorial/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the editorial daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			cl, err := ctx.apiClient()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				cmd.Context(),
				cl,
				exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath(), LogLevel: startLogLevel},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.Status.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the editorial daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cl, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), cl, ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and partition status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := daemonctl.BuildStatus(cmd.Context(), cl, ctx.configValue())
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cmd.Context(), ctx.configValue())
			if !status.Running {
				checks = append(checks, preflight.CheckStorage(cmd.Context(), ctx.configValue()))
			}
			if statusJSON {
				return writeJSON(cmd, statusReport{DaemonStatus: status, Checks: checks})
			}
			printStatus(cmd, status, checks)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

type statusReport struct {
	api.DaemonStatus
	Checks []preflight.Result `json:"checks"`
}

func printStatus(cmd *cobra.Command, status api.DaemonStatus, checks []preflight.Result) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if status.Running {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "Not running", colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Backend", statusInfo, status.Backend, colorize))
	if status.Running {
		flushKind := statusOK
		if status.PendingFlush {
			flushKind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine("Pending flush", flushKind, yesNo(status.PendingFlush), colorize))
		fmt.Fprintln(stdout, renderStatusLine("Stats year", statusInfo, fmt.Sprintf("%d", status.StatsYear), colorize))
	}
	fmt.Fprintln(stdout)

	if len(checks) > 0 {
		for _, line := range renderSectionHeader("System", colorize) {
			fmt.Fprintln(stdout, line)
		}
		for _, check := range checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
		fmt.Fprintln(stdout)
	}

	for _, line := range renderSectionHeader("Partitions", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(status.Counts) == 0 {
		fmt.Fprintln(stdout, "No manuscripts")
		return
	}
	fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, partitionRows(status.Counts), []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(stdout)
}

func partitionRows(counts map[manuscript.Status]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, s := range manuscript.AllStatuses() {
		rows = append(rows, []string{s.Label(), fmt.Sprintf("%d", counts[s])})
	}
	return rows
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}
