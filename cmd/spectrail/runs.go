package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run transcripts and task artifacts",
	}
	cmd.AddCommand(runsShowCmd())
	cmd.AddCommand(runsArtifactsCmd())
	return cmd
}

func runsShowCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a run's message transcript and tool-call history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("--run is required")
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

			msgs, err := a.workflow.ListMessages(ctx, runID)
			if err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			for _, m := range msgs {
				fmt.Printf("--- %s (%s) ---\n%s\n\n", m.Role, m.CreatedAt.Format("15:04:05"), m.Content)
			}

			calls, err := a.workflow.ListToolCalls(ctx, runID)
			if err != nil {
				return fmt.Errorf("list tool calls: %w", err)
			}
			if len(calls) > 0 {
				fmt.Println("--- tool calls ---")
				for _, c := range calls {
					fmt.Printf("%s(%s) -> %s\n", c.Name, c.ArgsJSON, c.ResultJSON)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	return cmd
}

func runsArtifactsCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List a task's persisted artifacts",
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

			arts, err := a.workflow.ListArtifacts(ctx, taskID)
			if err != nil {
				return fmt.Errorf("list artifacts: %w", err)
			}
			for _, art := range arts {
				fmt.Printf("[%s] %s (updated %s)\n", art.Kind, art.ID, art.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	return cmd
}
