package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spectrail/core/pkg/spectrailapi"
)

func planCmd() *cobra.Command {
	var repo, title, projectName string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an implementation plan for a task (generate_plan)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if repo == "" {
				return fmt.Errorf("--repo is required")
			}
			if title == "" {
				return fmt.Errorf("--title is required")
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

			project, err := findOrCreateProject(ctx, a, repo, projectName)
			if err != nil {
				return err
			}
			task, err := a.projects.CreateTask(ctx, project.ID, title, spectrailapi.TaskModePlan)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}

			result, err := a.workflow.GeneratePlan(ctx, task.ID)
			if err != nil {
				return fmt.Errorf("generate plan: %w", err)
			}

			fmt.Printf("project: %s\ntask:    %s\nrun:     %s\n\n", project.ID, task.ID, result.RunID)
			fmt.Println(result.PlanMD)
			if result.Truncated {
				fmt.Fprintln(cmd.ErrOrStderr(), "\n(warning: run was truncated — context or iteration cap reached)")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "path to the repository root")
	cmd.Flags().StringVar(&title, "title", "", "task title / description")
	cmd.Flags().StringVar(&projectName, "project-name", "", "display name for a newly created project (default: repo's base name)")
	return cmd
}

// findOrCreateProject reuses an existing project pointed at repoPath, or
// creates one. The dev CLI has no project-management UI of its own, so this
// is the minimum needed to make --repo self-service.
func findOrCreateProject(ctx context.Context, a *app, repoPath, name string) (*spectrailapi.Project, error) {
	existing, err := a.projects.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range existing {
		if p.RepoPath == repoPath {
			return &p, nil
		}
	}
	if name == "" {
		name = filepath.Base(repoPath)
	}
	project, err := a.projects.CreateProject(ctx, name, repoPath)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}
