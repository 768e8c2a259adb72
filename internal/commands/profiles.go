package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/budgetbook/budgetbook/internal/importer"
)

var profileRoles = []importer.Role{
	importer.RoleDate,
	importer.RoleDescription,
	importer.RoleAmount,
	importer.RoleCategory,
}

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the header names recognized for each bank profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, p := range importer.Profiles() {
				dict, _ := importer.DictionaryFor(p)
				fmt.Fprintf(out, "%s\n", p)
				for _, role := range profileRoles {
					fmt.Fprintf(out, "  %-12s %s\n", role.String()+":", strings.Join(dict.Candidates(role), ", "))
				}
			}
			fmt.Fprintf(out, "\nSupported files: %s\n", strings.Join(importer.DefaultRegistry().Extensions(), ", "))
			return nil
		},
	}
}
