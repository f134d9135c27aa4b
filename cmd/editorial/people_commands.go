package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"editorial/internal/client"
	"editorial/internal/directory"
)

// newPeopleCommand builds the read-only "reviewers" or "editors" group.
func newPeopleCommand(ctx *commandContext, kind string) *cobra.Command {
	group := &cobra.Command{
		Use:   kind,
		Short: "Browse the " + strings.TrimSuffix(kind, "s") + " roster",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + kind,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(c *client.Client) error {
				fetch := c.Reviewers
				if kind == "editors" {
					fetch = c.Editors
				}
				people, err := fetch(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if people == nil {
						people = []directory.Person{}
					}
					return writeJSON(cmd, people)
				}
				out := cmd.OutOrStdout()
				if len(people) == 0 {
					fmt.Fprintf(out, "No %s configured\n", kind)
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Email", "Affiliation", "Expertise"},
					peopleRows(people),
					nil,
				))
				return nil
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	group.AddCommand(list)
	return group
}

func peopleRows(people []directory.Person) [][]string {
	rows := make([][]string, 0, len(people))
	for _, p := range people {
		rows = append(rows, []string{p.ID, p.Name, p.Email, p.Affiliation, strings.Join(p.Expertise, ", ")})
	}
	return rows
}
