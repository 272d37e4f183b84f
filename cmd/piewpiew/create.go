package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/piewpiew/pkg/data"
)

var createCmd = &cobra.Command{
	Use:   "create <model> [field=value...]",
	Short: "Validate and store a new record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openModel(args[0])
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		values, err := parseValues(t, args[1:])
		if err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}

		type created struct {
			record *data.Model
			err    error
		}
		ch := make(chan created, 1)
		t.Objects().Create(cmd.Context(), values, func(m *data.Model, err error) {
			ch <- created{m, err}
		})
		res := <-ch
		if res.err != nil {
			for _, ve := range data.ValidationErrors(res.err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", ve.Field, ve.Messages)
			}
			return fmt.Errorf("failed to create record: %w", res.err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Record '%s' created.\n", res.record)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
