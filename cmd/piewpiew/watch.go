package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/piewpiew/pkg/adapters/lifecycle"
	"github.com/aretw0/piewpiew/pkg/core"
)

var watchOnly []string

var watchCmd = &cobra.Command{
	Use:   "watch <model> [pattern]",
	Short: "Print changes to a model's records as they happen",
	Long: `Watch the record files of a model and print one line per change.
The optional doublestar pattern is matched against record identifiers.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openModel(args[0])
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		pattern := "*"
		if len(args) == 2 {
			pattern = args[1]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := t.Objects().Watch(ctx, pattern)
		if err != nil {
			return fmt.Errorf("failed to watch: %w", err)
		}

		var types []core.EventType
		for _, name := range watchOnly {
			types = append(types, core.EventType(strings.ToUpper(name)))
		}
		src := lifecycle.NewSource(events, lifecycle.OnlyTypes(types...))
		if err := src.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}

		slog.Info("watching", "model", t.Name(), "pattern", pattern)
		for e := range src.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Only print these change types (create, modify, delete)")
}
