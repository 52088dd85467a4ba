package main

import (
	"fmt"

	"github.com/benjmor/tabroom-auto-summarize/internal/domain/schoolname"
	"github.com/spf13/cobra"
)

var shortnameCmd = &cobra.Command{
	Use:   "shortname NAME...",
	Short: "Print canonical short school names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := schoolname.NewCanonicalizer()
		for _, name := range args {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, c.ShortName(name)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shortnameCmd)
}
