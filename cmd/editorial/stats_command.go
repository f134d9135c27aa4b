package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"editorial/internal/client"
	"editorial/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var (
		year   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				current, err := c.Stats(cmd.Context(), year)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, current)
				}
				printStats(cmd, current)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Histogram year (default: the dashboard year)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "set-year <year>",
		Short: "Change the dashboard year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil || target <= 0 {
				return fmt.Errorf("invalid year %q", args[0])
			}
			return ctx.withClient(func(c *client.Client) error {
				updated, err := c.SetYear(cmd.Context(), target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dashboard year set to %d (%d submissions)\n", updated.Year, sumMonths(updated))
				return nil
			})
		},
	})
	return cmd
}

func printStats(cmd *cobra.Command, current stats.DashboardStats) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Partitions", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, partitionRows(current.Partitions),
		[]columnAlignment{alignLeft, alignRight}, "Total", strconv.Itoa(current.Total)))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("People", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Reviewers", statusInfo, strconv.Itoa(current.Reviewers), colorize))
	fmt.Fprintln(out, renderStatusLine("Editors", statusInfo, strconv.Itoa(current.Editors), colorize))
	fmt.Fprintln(out, renderStatusLine("Internal", statusInfo, strconv.Itoa(current.InternalSubmissions), colorize))
	fmt.Fprintln(out, renderStatusLine("External", statusInfo, strconv.Itoa(current.ExternalSubmissions), colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Submissions %d", current.Year), colorize) {
		fmt.Fprintln(out, line)
	}
	rows := make([][]string, 0, 12)
	for _, half := range [][]stats.MonthCount{current.FirstHalf, current.SecondHalf} {
		for _, m := range half {
			rows = append(rows, []string{m.Month, strconv.Itoa(m.Value)})
		}
	}
	fmt.Fprintln(out, renderTable([]string{"Month", "Submissions"}, rows,
		[]columnAlignment{alignLeft, alignRight}, "Total", strconv.Itoa(sumMonths(current))))
}

func sumMonths(current stats.DashboardStats) int {
	total := 0
	for _, m := range current.FirstHalf {
		total += m.Value
	}
	for _, m := range current.SecondHalf {
		total += m.Value
	}
	return total
}
