// Package commands implements the radiusdump CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/dantte-lp/goradius/internal/dict"
)

var (
	// dictionary is the attribute dictionary shared by all commands,
	// initialized in PersistentPreRunE.
	dictionary *dict.Dictionary

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// dictFiles are extra dictionary files loaded on top of the builtin set.
	dictFiles []string
)

// rootCmd is the top-level cobra command for radiusdump.
var rootCmd = &cobra.Command{
	Use:   "radiusdump",
	Short: "Decode RADIUS packets and users files offline",
	Long:  "radiusdump decodes RADIUS attribute hex dumps, parses users files, and inspects the attribute dictionary without a running daemon.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		dictionary = dict.Builtin()
		for _, path := range dictFiles {
			if err := dictionary.LoadFile(path); err != nil {
				return err
			}
		}
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")
	rootCmd.PersistentFlags().StringSliceVar(&dictFiles, "dictionary", nil,
		"extra dictionary file (repeatable)")

	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(dictCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
