package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	storeDir   string
	schemaPath string
	format     string
	readOnly   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "piewpiew",
	Short: "Validated models over a file-per-record store",
	Long: `piewpiew declares model types in a YAML schema and stores their records
as one JSON or YAML file each. Records are validated on write and can be
queried with field lookups or watched for changes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&storeDir, "dir", "d", "", "Store root (defaults to the nearest root above the working directory)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "Schema file (defaults to piewpiew.yaml at the store root)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "File format of new records (json or yaml)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "readonly", false, "Reject writes")
}
