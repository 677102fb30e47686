package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/client/config"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/totalsdk/sdktest"
)

var tenantOwner = totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 42}

// cliEnv is a logged-in config pointing at a fake API
type cliEnv struct {
	srv     *sdktest.Server
	dir     string
	cfgPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	e := newLoggedOutEnv(t)
	cfg := e.config(t)
	cfg.SetTokens(e.srv.Tokens(t))
	cfg.SetDefaultOwner(tenantOwner)
	require.NoError(t, cfg.Save())
	return e
}

func newLoggedOutEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	e := &cliEnv{
		srv:     sdktest.New(t),
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.json"),
	}
	cfg := &config.Config{
		ServerURL:   e.srv.URL,
		JournalPath: filepath.Join(dir, "staging.db"),
		Path:        e.cfgPath,
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save())
	return e
}

func (e *cliEnv) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromFile(e.cfgPath)
	require.NoError(t, err)
	return cfg
}

func (e *cliEnv) run(args ...string) (string, error) {
	return e.runContext(context.Background(), nil, args...)
}

func (e *cliEnv) runContext(ctx context.Context, stdin *bytes.Buffer, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := cmd.ExecuteContext(ctx)
	return stripANSI(out.String()), err
}

func (e *cliEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, "local", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}
