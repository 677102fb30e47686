package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/client/config"
)

func TestResolveConfigPath_FlagThenEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "env.json")
	t.Setenv(envPrefix+"_CONFIG_PATH", envPath)

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", "/etc/totalapp.json"}))
	assert.Equal(t, "/etc/totalapp.json", resolveConfigPath(cmd))

	assert.Equal(t, envPath, resolveConfigPath(newRootCmd()))
}

func TestConfigCandidates(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	candidates := configCandidates()
	require.Len(t, candidates, 3)
	assert.Equal(t, config.DefaultConfigPath, candidates[0])
	assert.Equal(t, filepath.Join(xdg, "totalapp", "config.json"), candidates[1])

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Len(t, configCandidates(), 2)
}
