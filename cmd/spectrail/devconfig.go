// Dev config for the CLI harness only: it seeds spectrailapi.ProviderSettings
// and picks a storage backend so `spectrail plan`/`verify` have something to
// run against without a desktop shell's Settings store in front of them.
// Grounded on the teacher's internal/config.Load/Default/applyEnvOverrides
// shape (json5 file + env overlay, env always wins).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"

	"github.com/spectrail/core/pkg/spectrailapi"
)

// DBConfig selects and configures the RunLog/projects storage backend.
type DBConfig struct {
	Driver        string `json:"driver"`         // "sqlite" (default) or "postgres"
	SQLitePath    string `json:"sqlite_path"`
	PostgresDSN   string `json:"-"`               // secret: env only, never persisted
	MigrationsDir string `json:"migrations_dir"`
}

// ProviderConfig seeds spectrailapi.ProviderSettings for the CLI's one
// configured provider.
type ProviderConfig struct {
	Name         string            `json:"name"`
	BaseURL      string            `json:"base_url"`
	Model        string            `json:"model"`
	APIKey       string            `json:"-"` // secret: env only, never persisted
	Temperature  float64           `json:"temperature"`
	MaxTokens    int               `json:"max_tokens"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
	DevMode      bool              `json:"dev_mode,omitempty"`
}

// DevConfig is the root of spectrail.json5.
type DevConfig struct {
	DB       DBConfig       `json:"db"`
	Provider ProviderConfig `json:"provider"`
}

func defaultDevConfig() *DevConfig {
	return &DevConfig{
		DB: DBConfig{
			Driver:     "sqlite",
			SQLitePath: "spectrail.db",
		},
		Provider: ProviderConfig{
			Name:        "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
	}
}

// loadDevConfig reads path (if it exists) as lenient JSON5, then overlays
// environment variables. A missing file is not an error — defaults plus env
// overrides are enough to run.
func loadDevConfig(path string) (*DevConfig, error) {
	cfg := defaultDevConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read dev config: %w", err)
	}
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse dev config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *DevConfig) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("SPECTRAIL_DB_DRIVER", &c.DB.Driver)
	envStr("SPECTRAIL_SQLITE_PATH", &c.DB.SQLitePath)
	envStr("SPECTRAIL_POSTGRES_DSN", &c.DB.PostgresDSN)
	envStr("SPECTRAIL_MIGRATIONS_DIR", &c.DB.MigrationsDir)

	envStr("SPECTRAIL_PROVIDER", &c.Provider.Name)
	envStr("SPECTRAIL_BASE_URL", &c.Provider.BaseURL)
	envStr("SPECTRAIL_MODEL", &c.Provider.Model)
	envStr("SPECTRAIL_API_KEY", &c.Provider.APIKey)
}

// resolveConfigPath mirrors the teacher's resolveConfigPath: flag wins, then
// env, then a fixed default filename in the working directory.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	if v := os.Getenv("SPECTRAIL_CONFIG"); v != "" {
		return v
	}
	return "spectrail.json5"
}

func (c *DevConfig) providerSettings() spectrailapi.ProviderSettings {
	return spectrailapi.ProviderSettings{
		ProviderName: c.Provider.Name,
		BaseURL:      c.Provider.BaseURL,
		Model:        c.Provider.Model,
		APIKey:       c.Provider.APIKey,
		Temperature:  c.Provider.Temperature,
		MaxTokens:    c.Provider.MaxTokens,
		ExtraHeaders: c.Provider.ExtraHeaders,
		DevMode:      c.Provider.DevMode,
	}
}

func (c *DevConfig) resolveMigrationsDir() string {
	if c.DB.MigrationsDir != "" {
		return c.DB.MigrationsDir
	}
	sub := "sqlite"
	if c.DB.Driver == "postgres" {
		sub = "postgres"
	}
	// Default: ./migrations/<driver> next to the working directory, falling
	// back to a path relative to the running binary (teacher precedent).
	if _, err := os.Stat(filepath.Join("migrations", sub)); err == nil {
		return filepath.Join("migrations", sub)
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("migrations", sub)
	}
	return filepath.Join(filepath.Dir(exe), "migrations", sub)
}
