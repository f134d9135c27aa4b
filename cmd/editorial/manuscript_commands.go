package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"editorial/internal/client"
	"editorial/internal/manuscript"
)

func newManuscriptCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manuscript",
		Aliases: []string{"ms"},
		Short:   "Submit, inspect and move manuscripts",
	}

	cmd.AddCommand(newManuscriptAddCommand(ctx))
	cmd.AddCommand(newManuscriptListCommand(ctx))
	cmd.AddCommand(newManuscriptShowCommand(ctx))
	cmd.AddCommand(newManuscriptMoveCommand(ctx))
	cmd.AddCommand(newManuscriptReviseCommand(ctx))
	cmd.AddCommand(newManuscriptLayoutCommand(ctx))
	cmd.AddCommand(newManuscriptProofreadCommand(ctx))
	cmd.AddCommand(newManuscriptPaymentCommand(ctx))
	cmd.AddCommand(newManuscriptEditCommand(ctx))
	cmd.AddCommand(newManuscriptWithdrawCommand(ctx))

	return cmd
}

func newManuscriptAddCommand(ctx *commandContext) *cobra.Command {
	var (
		id        string
		date      string
		reviewers string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a manuscript into pre-review",
		Args:  cobra.NoArgs,
	}
	fields := newFlagSet(cmd.Flags())
	addSubmissionFlags(fields)
	cmd.Flags().StringVar(&id, "id", "", "Manuscript id (generated when empty)")
	cmd.Flags().StringVar(&date, "date", "", "Submission date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&reviewers, "reviewers", "", "Comma-separated reviewer ids")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		patch, err := submissionPatch(fields)
		if err != nil {
			return err
		}
		rec := manuscript.Record{
			ID:          strings.TrimSpace(id),
			Title:       deref(patch.Title),
			Authors:     deref(patch.Authors),
			Affiliation: deref(patch.Affiliation),
			Email:       deref(patch.Email),
			Scope:       deref(patch.Scope),
			ScopeCode:   deref(patch.ScopeCode),
			Date:        strings.TrimSpace(date),
			Reviewers:   splitList(reviewers),
		}
		if patch.ScopeType != nil {
			rec.ScopeType = *patch.ScopeType
		}
		return ctx.withClient(func(c *client.Client) error {
			created, err := c.AddManuscript(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manuscript %s added to %s\n", created.ID, created.Status.Label())
			return nil
		})
	}
	return cmd
}

func newManuscriptListCommand(ctx *commandContext) *cobra.Command {
	var (
		statuses []string
		year     int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manuscripts by partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withClient(func(c *client.Client) error {
				var records []manuscript.Record
				for _, status := range targets {
					batch, err := c.List(cmd.Context(), status, year)
					if err != nil {
						return err
					}
					records = append(records, batch...)
				}
				if asJSON {
					if records == nil {
						records = []manuscript.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No manuscripts found")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Authors", "Status", "Date"},
					manuscriptRows(records, shouldColorize(out)),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Partition to list (repeatable, default all)")
	cmd.Flags().IntVar(&year, "year", 0, "Only manuscripts submitted in this year")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newManuscriptShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one manuscript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				rec, err := c.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, rec)
				}
				printRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newManuscriptMoveCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewers string
		patchFile string
	)
	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a manuscript to another partition",
		Long: "Move a manuscript along the workflow. Stage details required by the\n" +
			"target partition are supplied with flags or a JSON patch file.",
		Args: cobra.ExactArgs(2),
	}
	fields := newFlagSet(cmd.Flags())
	fields.add("rejection-reason", "Reason for rejection (required when rejecting from pre-review)")
	fields.add("rejection-comment", "Comment sent with a rejection")
	addLayoutFlags(fields)
	addProofreadingFlags(fields)
	addPublishFlags(fields)
	cmd.Flags().StringVar(&reviewers, "reviewers", "", "Comma-separated reviewer ids (double-blind)")
	cmd.Flags().StringVar(&patchFile, "patch-file", "", "JSON patch file, or - for stdin")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		target, ok := manuscript.ParseStatus(args[1])
		if !ok {
			return fmt.Errorf("unknown status %q", args[1])
		}
		var patch manuscript.Patch
		if patchFile != "" {
			if err := readPatchFile(patchFile, &patch); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("reviewers") {
			patch.Reviewers = splitList(reviewers)
		}
		if v := fields.ptr("rejection-reason"); v != nil {
			patch.RejectionReason = v
		}
		if v := fields.ptr("rejection-comment"); v != nil {
			patch.RejectionComment = v
		}
		if layout := layoutPatch(fields, false); layout != nil {
			patch.Layout = layout
		}
		if proof := proofreadingPatch(fields, false); proof != nil {
			patch.Proofreading = proof
		}
		if publish := publishPatch(fields); publish != nil {
			patch.Publish = publish
		}
		return ctx.withClient(func(c *client.Client) error {
			rec, err := c.Transition(cmd.Context(), args[0], target, patch)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manuscript %s moved to %s\n", rec.ID, rec.Status.Label())
			return nil
		})
	}
	return cmd
}

func newManuscriptReviseCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revise <id>",
		Short: "Record a revision without leaving the current partition",
		Args:  cobra.ExactArgs(1),
	}
	fields := newFlagSet(cmd.Flags())
	addRevisionFlags(fields)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return ctx.withClient(func(c *client.Client) error {
			current, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var patch manuscript.Patch
			if current.Status == manuscript.StatusFinalProofreading {
				patch.Proofreading = &manuscript.ProofreadingPatch{
					RevisionStatus:   fields.ptr("revision-status"),
					RevisionComments: fields.ptr("revision-comments"),
				}
			} else {
				patch.RevisionStatus = fields.ptr("revision-status")
				patch.RevisionComments = fields.ptr("revision-comments")
			}
			rec, err := c.Transition(cmd.Context(), current.ID, current.Status, patch)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manuscript %s revised in %s\n", rec.ID, rec.Status.Label())
			return nil
		})
	}
	return cmd
}

func newManuscriptLayoutCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout <id>",
		Short: "Update layout details",
		Args:  cobra.ExactArgs(1),
	}
	fields := newFlagSet(cmd.Flags())
	addLayoutFlags(fields)
	addRevisionFlags(fields)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		patch := layoutPatch(fields, true)
		if patch == nil {
			return fmt.Errorf("no layout fields given")
		}
		return ctx.withClient(func(c *client.Client) error {
			rec, err := c.UpdateLayout(cmd.Context(), args[0], *patch)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Layout details updated for %s\n", rec.ID)
			return nil
		})
	}
	return cmd
}

func newManuscriptProofreadCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proofread <id>",
		Short: "Update proofreading details",
		Args:  cobra.ExactArgs(1),
	}
	fields := newFlagSet(cmd.Flags())
	addProofreadingFlags(fields)
	addRevisionFlags(fields)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		patch := proofreadingPatch(fields, true)
		if patch == nil {
			return fmt.Errorf("no proofreading fields given")
		}
		return ctx.withClient(func(c *client.Client) error {
			rec, err := c.UpdateProofreading(cmd.Context(), args[0], *patch)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proofreading details updated for %s\n", rec.ID)
			return nil
		})
	}
	return cmd
}

func newManuscriptPaymentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "payment <id> <paid|not-paid>",
		Short: "Set the payment status of a published manuscript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := manuscript.ParsePaymentStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown payment status %q (want paid or not-paid)", args[1])
			}
			return ctx.withClient(func(c *client.Client) error {
				rec, err := c.UpdatePayment(cmd.Context(), args[0], status)
				if err != nil {
					return describeError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Manuscript %s marked %s\n", rec.ID, status)
				return nil
			})
		},
	}
}

func newManuscriptEditCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit submission metadata",
		Args:  cobra.ExactArgs(1),
	}
	fields := newFlagSet(cmd.Flags())
	addSubmissionFlags(fields)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		patch, err := submissionPatch(fields)
		if err != nil {
			return err
		}
		return ctx.withClient(func(c *client.Client) error {
			rec, err := c.EditSubmission(cmd.Context(), args[0], patch)
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manuscript %s updated\n", rec.ID)
			return nil
		})
	}
	return cmd
}

func newManuscriptWithdrawCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Withdraw a manuscript that is still in pre-review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				removed, err := c.Withdraw(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "Manuscript %s not found in pre-review\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Manuscript %s withdrawn\n", args[0])
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]manuscript.Status, error) {
	if len(values) == 0 {
		return manuscript.AllStatuses(), nil
	}
	out := make([]manuscript.Status, 0, len(values))
	for _, value := range values {
		status, ok := manuscript.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		out = append(out, status)
	}
	return out, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
