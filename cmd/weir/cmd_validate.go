package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cobbet/weir"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Validate a pipeline definition against the built-in tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := weir.LoadDefinition(args[0])
		if err != nil {
			return err
		}

		registry, err := defaultRegistry()
		if err != nil {
			return err
		}

		if _, err := weir.New(def, registry); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pipeline(s) valid\n", args[0], len(def.Pipelines))
		return nil
	},
}
