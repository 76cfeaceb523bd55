package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered users",
	}
	cmd.AddCommand(usersListCmd())
	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every user with their roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(_ *config.Config, svc *cli.Services) error {
				users, err := svc.Users.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(cmd, users)
			})
		},
	}
}

func printUsers(cmd *cobra.Command, users []core.User) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLES")
	for _, u := range users {
		roles := make([]string, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, string(r))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Username, strings.Join(roles, ","))
	}
	return w.Flush()
}
