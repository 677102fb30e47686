package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/totalsdk/sdktest"
)

func TestLogin_PasswordStdin(t *testing.T) {
	e := newLoggedOutEnv(t)

	out, err := e.runContext(context.Background(), bytes.NewBufferString(sdktest.DefaultPassword+"\n"), "login", "--password-stdin")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Logged in")
	assert.Contains(t, out, "TOTALAPP CONFIG")

	cfg := e.config(t)
	assert.True(t, cfg.LoggedIn())
	assert.NotEmpty(t, cfg.IDToken)
	// the refresh token is never printed in full
	assert.NotContains(t, out, cfg.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newLoggedOutEnv(t)

	_, err := e.runContext(context.Background(), bytes.NewBufferString("nope\n"), "login", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, "Parola incorecta", totalsdk.UserMessage(err, ""))
	assert.False(t, e.config(t).LoggedIn())
}

func TestLogin_EmptyPassword(t *testing.T) {
	e := newLoggedOutEnv(t)

	_, err := e.runContext(context.Background(), bytes.NewBufferString("\n"), "login", "--password-stdin")
	assert.Error(t, err)
}

func TestLogin_AlreadyLoggedIn(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run("login")
	require.NoError(t, err, out)
	assert.Contains(t, out, "**Already logged in**")
	assert.Contains(t, out, "TENANT/42")

	out, err = e.run("login", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(out))
}

func TestLogout(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run("logout")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Logged out")
	assert.False(t, e.config(t).LoggedIn())

	out, err = e.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("TOTALAPP_SERVER_URL", "https://env.example.com/api/")
	t.Setenv("TOTALAPP_OWNER_TYPE", "CAR")
	t.Setenv("TOTALAPP_OWNER_ID", "5")

	cmd := newRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("config", e.cfgPath))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.ServerURL)
	assert.Equal(t, e.cfgPath, cfg.Path)

	owner, err := cfg.DefaultOwner()
	require.NoError(t, err)
	assert.Equal(t, totalsdk.Owner{Type: totalsdk.OwnerCar, ID: 5}, owner)
	assert.NotEmpty(t, cfg.RefreshToken)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("TOTALAPP_SERVER_URL", "https://env.example.com")

	cmd := newRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("config", e.cfgPath))
	require.NoError(t, cmd.PersistentFlags().Set("server", "https://flag.example.com"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.ServerURL)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cmd := newRootCmd()
	path := t.TempDir() + "/absent.json"
	require.NoError(t, cmd.PersistentFlags().Set("config", path))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, totalsdk.DefaultBaseURL, cfg.ServerURL)
	assert.False(t, cfg.LoggedIn())
}

func TestCLI_ErrorExitCode(t *testing.T) {
	out, code := runCLI(t, "files", "list", "--output", "xml", "--config", t.TempDir()+"/c.json")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "ERROR: unknown output format")
}

func TestCLI_Version(t *testing.T) {
	out, code := runCLI(t, "version")
	assert.Equal(t, 0, code, out)
}
