package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/client/config"
	"github.com/totalapp/tenantfiles/internal/utils"
)

var home, _ = os.UserHomeDir()

// resolveConfigPath picks the config file: the --config flag, then
// TOTALAPP_CONFIG_PATH, then the first existing candidate, else the default.
func resolveConfigPath(cmd *cobra.Command) string {
	if cfgFlag := cmd.Flag("config"); cfgFlag != nil && cfgFlag.Changed {
		return cfgFlag.Value.String()
	}

	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		return envPath
	}

	for _, candidate := range configCandidates() {
		if utils.FileExists(candidate) {
			return candidate
		}
	}

	return config.DefaultConfigPath
}

// configCandidates lists where an existing config is looked for, in order
func configCandidates() []string {
	candidates := []string{config.DefaultConfigPath}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "totalapp", "config.json"))
	}
	return append(candidates, filepath.Join(home, ".config", "totalapp", "config.json"))
}
