package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/piewpiew/pkg/data"
)

var (
	listJSON    bool
	listTimeout time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list <model> [field__lookup=value...]",
	Short: "List the records of a model",
	Long: `List the records of a model, optionally keeping only those that match any
of the given lookups (e.g. name=Amy age__gt=30 name__in=Amy,Bob).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openModel(args[0])
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		lookups, err := parseLookups(t, args[1:])
		if err != nil {
			return fmt.Errorf("invalid lookup: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
		defer cancel()

		var qs *data.QuerySet
		if len(lookups) > 0 {
			qs = t.Objects().Filter(lookups)
		} else {
			qs = t.Objects().NewQuerySet()
		}
		records, err := qs.Collect(ctx)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			rows := make([]map[string]any, 0, records.Len())
			records.Each(func(r *data.Model) {
				rows = append(rows, r.Properties())
			})
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(rows); err != nil {
				return fmt.Errorf("error encoding JSON: %w", err)
			}
			return nil
		}

		fields := t.FieldNames()
		records.Each(func(r *data.Model) {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				if f == data.IDField {
					continue
				}
				if v := r.Get(f); v != nil {
					parts = append(parts, fmt.Sprintf("%s=%v", f, v))
				}
			}
			fmt.Fprintf(out, "%s %s\n", r, strings.Join(parts, " "))
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().DurationVar(&listTimeout, "timeout", 30*time.Second, "Give up when the store does not answer in time")
}
