package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"editorial/internal/client"
	"editorial/internal/ratings"
)

func newRateCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewer string
		comment  string
	)
	cmd := &cobra.Command{
		Use:   "rate <manuscript-id> <score>",
		Short: fmt.Sprintf("Record a reviewer score (%d-%d)", ratings.MinScore, ratings.MaxScore),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid score %q", args[1])
			}
			return ctx.withClient(func(c *client.Client) error {
				saved, err := c.Rate(cmd.Context(), ratings.Rating{
					ManuscriptID: args[0],
					ReviewerID:   reviewer,
					Score:        score,
					Comment:      comment,
				})
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rated %s: %d/%d by %s\n", saved.ManuscriptID, saved.Score, ratings.MaxScore, saved.ReviewerID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reviewer, "reviewer", "r", "", "Reviewer id")
	cmd.Flags().StringVar(&comment, "comment", "", "Optional comment")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func newRatingsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ratings <manuscript-id>",
		Short: "List the ratings of a manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				resp, err := c.Ratings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if resp.Count == 0 {
					fmt.Fprintf(out, "No ratings for %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(resp.Ratings))
				for _, r := range resp.Ratings {
					rows = append(rows, []string{r.ReviewerID, strconv.Itoa(r.Score), r.Comment, r.CreatedAt.Format("2006-01-02")})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Reviewer", "Score", "Comment", "Date"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
					"Average", strconv.FormatFloat(resp.Average, 'f', 2, 64),
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newMailCommand(ctx *commandContext) *cobra.Command {
	var (
		to      string
		subject string
	)
	cmd := &cobra.Command{
		Use:   "mail <body>",
		Short: "Send an email notification through the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				if err := c.SendMail(cmd.Context(), to, subject, args[0]); err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mail to %s queued\n", to)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient email address")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject line")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
