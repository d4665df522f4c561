package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spectrail/core/pkg/spectrailapi"
)

func verifyCmd() *cobra.Command {
	var taskID string
	var runTests, runLint, runBuild, staged bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a task's current diff against its plan (verify_task)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID == "" {
				return fmt.Errorf("--task is required")
			}

			ctx := cmd.Context()
			cfg, err := loadDevConfig(resolveConfigPath())
			if err != nil {
				return err
			}
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.workflow.VerifyTask(ctx, taskID, spectrailapi.VerifyOptions{
				RunTests: runTests,
				RunLint:  runLint,
				RunBuild: runBuild,
				Staged:   staged,
			})
			if err != nil {
				return fmt.Errorf("verify task: %w", err)
			}

			fmt.Printf("run: %s\n\n", result.RunID)
			fmt.Println(result.ReportMD)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nchecks run — tests: %v, lint: %v, build: %v\n",
				result.RanChecks.Tests, result.RanChecks.Lint, result.RanChecks.Build)
			if result.Truncated {
				fmt.Fprintln(cmd.ErrOrStderr(), "(warning: run was truncated — context or iteration cap reached)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id to verify (from `spectrail plan`)")
	cmd.Flags().BoolVar(&runTests, "tests", false, "run the repository's test command before verifying")
	cmd.Flags().BoolVar(&runLint, "lint", false, "run the repository's lint command before verifying")
	cmd.Flags().BoolVar(&runBuild, "build", false, "run the repository's build command before verifying")
	cmd.Flags().BoolVar(&staged, "staged", false, "diff staged changes instead of the working tree")
	return cmd
}
