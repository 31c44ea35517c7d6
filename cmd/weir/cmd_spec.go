package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cobbet/weir"
)

var specCmd = &cobra.Command{
	Use:   "spec <definition>",
	Short: "Print the loaded pipelines and registered tasks as JSON",
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

		engine, err := weir.New(def, registry)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(engine.Spec(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
