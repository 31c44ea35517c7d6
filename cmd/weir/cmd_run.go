package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cobbet/weir"
)

var (
	runPipeline    string
	runRecords     string
	runStepTimeout time.Duration
	runSnapshotDir string
)

func init() {
	runCmd.Flags().StringVarP(&runPipeline, "pipeline", "p", "", "pipeline name to execute (required)")
	runCmd.Flags().StringVarP(&runRecords, "records", "r", "", "YAML/JSON file of content records (required)")
	runCmd.Flags().DurationVar(&runStepTimeout, "step-timeout", 30*time.Second, "per-step deadline")
	runCmd.Flags().StringVar(&runSnapshotDir, "snapshots", "", "directory to write msgpack run snapshots into")
	_ = runCmd.MarkFlagRequired("pipeline")
	_ = runCmd.MarkFlagRequired("records")
}

var runCmd = &cobra.Command{
	Use:   "run <definition>",
	Short: "Run a pipeline over content records from a file",
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

		engine, err := weir.New(def, registry,
			weir.WithStepTimeout(runStepTimeout))
		if err != nil {
			return err
		}

		source := &fileSource{path: runRecords}
		records, err := source.Fetch(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("no content records in %s", runRecords)
		}

		runs, err := engine.RunBatch(cmd.Context(), runPipeline, records)
		if err != nil {
			return err
		}

		failed := 0
		for _, run := range runs {
			printRun(cmd, run)
			if !run.Success {
				failed++
			}
			if runSnapshotDir != "" {
				if err := writeSnapshot(runSnapshotDir, run); err != nil {
					return err
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d run(s) failed", failed, len(runs))
		}
		return nil
	},
}

func printRun(cmd *cobra.Command, run *weir.Run) {
	status := "ok"
	if run.Cancelled {
		status = "cancelled"
	} else if !run.Success {
		status = fmt.Sprintf("failed at %s", run.HaltedAt)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %-14s %s\n", run.ID, run.Content.ID, status)

	for _, step := range run.Steps {
		res, ok := run.Results[step]
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "    %-24s not executed\n", step)
			continue
		}
		if res.Success {
			fmt.Fprintf(cmd.OutOrStdout(), "    %-24s ok\n", step)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "    %-24s %s: %s\n", step, res.Code, res.Error)
		}
	}
}

func writeSnapshot(dir string, run *weir.Run) error {
	data, err := run.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot run %s: %w", run.ID, err)
	}
	path := fmt.Sprintf("%s/%s.msgpack", dir, run.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
