package commands

import (
	"github.com/spf13/cobra"

	"github.com/dantte-lp/goradius/internal/usersfile"
)

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users <file>",
		Short: "Parse a users file and print its entries",
		Long:  "Parses the given users file, following $INCLUDE directives, and prints every entry with its check and reply lists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entries, err := usersfile.ParseFile(dictionary, args[0])
			if err != nil {
				return err
			}
			return printEntries(entries)
		},
	}
}
