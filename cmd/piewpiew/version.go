package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/piewpiew"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of piewpiew",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "piewpiew version %s\n", strings.TrimSpace(piewpiew.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
