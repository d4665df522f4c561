// doctor supplements WorkflowFacade with a connectivity check before a real
// run, mirroring the teacher's cmd/doctor.go intent (one command prints
// config/DB/provider health) generalized to SpecTrail's settings. --watch
// reloads spectrail.json5 on edit and re-runs the check, same idiom as
// re-cinq-detergent's reloadRunnerConfig generalized from poll-on-a-timer to
// event-driven, since fsnotify gives that directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/spectrail/core/internal/pathguard"
)

func doctorCmd() *cobra.Command {
	var repo string
	var watch bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check dev config, storage, and provider connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath()
			runDoctorCheck(path, repo)
			if !watch {
				return nil
			}
			return watchConfig(cmd.Context(), path, func() { runDoctorCheck(path, repo) })
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "also check that this repository root resolves cleanly")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run the check whenever the config file changes")
	return cmd
}

func runDoctorCheck(configPath, repo string) {
	fmt.Println("spectrail doctor")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Config:  %s\n", configPath)

	cfg, err := loadDevConfig(configPath)
	if err != nil {
		fmt.Printf("    load error: %s\n", err)
		return
	}
	fmt.Println("    OK")

	fmt.Println("  Storage:")
	fmt.Printf("    driver:   %s\n", orDefault(cfg.DB.Driver, "sqlite"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		fmt.Printf("    status:   FAILED (%s)\n", err)
	} else {
		fmt.Println("    status:   OK")
		a.Close()
	}

	fmt.Println("  Provider:")
	fmt.Printf("    name:     %s\n", cfg.Provider.Name)
	fmt.Printf("    base_url: %s\n", cfg.Provider.BaseURL)
	if cfg.Provider.APIKey == "" {
		fmt.Println("    api_key:  MISSING (set SPECTRAIL_API_KEY)")
	} else {
		fmt.Println("    api_key:  present")
	}
	if reachable, rerr := checkReachable(cfg.Provider.BaseURL); rerr != nil {
		fmt.Printf("    reachable: UNKNOWN (%s)\n", rerr)
	} else if reachable {
		fmt.Println("    reachable: yes")
	} else {
		fmt.Println("    reachable: no")
	}

	if repo != "" {
		fmt.Println("  Repository:")
		if guard, gerr := pathguard.New(repo); gerr != nil {
			fmt.Printf("    %s: FAILED (%s)\n", repo, gerr)
		} else {
			fmt.Printf("    %s: OK\n", guard.Root())
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// checkReachable sends a bare HTTP HEAD request to baseURL, never a real
// completion request, so doctor never spends API credits.
func checkReachable(baseURL string) (bool, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodHead, baseURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, nil
	}
	resp.Body.Close()
	return true, nil
}

// watchConfig blocks, re-invoking onChange whenever path's directory reports
// a write to path. It exits when ctx is cancelled.
func watchConfig(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	defer watcher.Close()

	dir := "."
	if d := dirOf(path); d != "" {
		dir = d
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Printf("\nwatching %s for changes (ctrl-c to stop)\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Println("\nconfig changed, re-checking...")
			onChange()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Printf("watch error: %s\n", werr)
		}
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
