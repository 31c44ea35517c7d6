package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "weir",
	Short: "Declarative content-processing pipelines",
	Long: "Weir runs declarative content-processing pipelines: it loads a\n" +
		"pipeline definition, validates every step against the task registry,\n" +
		"and executes content records through the resolved step sequence.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
