package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

func TestConfig_Validate_NormalizesAndDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		ServerURL: " http://127.0.0.1:8080/api/ ",
		Email:     "Ana@Example.com",
		Path:      filepath.Join(tmp, "config.json"),
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.ServerURL)
	assert.Equal(t, "ana@example.com", cfg.Email)
	assert.True(t, filepath.IsAbs(cfg.Path))
	assert.Equal(t, filepath.Join(tmp, "staging.db"), cfg.JournalPath)
}

func TestConfig_Validate_DefaultServerURL(t *testing.T) {
	cfg := &Config{Path: filepath.Join(t.TempDir(), "config.json")}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	tmp := t.TempDir()

	t.Run("bad server url", func(t *testing.T) {
		cfg := &Config{
			ServerURL: "ftp://bad.example.com",
			Path:      filepath.Join(tmp, "config.json"),
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server url")
	})

	t.Run("bad owner type", func(t *testing.T) {
		cfg := &Config{
			ServerURL: "http://127.0.0.1:8080",
			OwnerType: "SPACESHIP",
			OwnerID:   3,
			Path:      filepath.Join(tmp, "config.json"),
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, totalsdk.ErrInvalidOwnerType)
	})

	t.Run("owner without id", func(t *testing.T) {
		cfg := &Config{
			ServerURL: "http://127.0.0.1:8080",
			OwnerType: "TENANT",
			Path:      filepath.Join(tmp, "config.json"),
		}
		assert.ErrorIs(t, cfg.Validate(), totalsdk.ErrInvalidOwnerID)
	})
}

func TestConfig_DefaultOwner(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.DefaultOwner()
	assert.Error(t, err)

	cfg.SetDefaultOwner(totalsdk.Owner{Type: totalsdk.OwnerProperty, ID: 12})
	owner, err := cfg.DefaultOwner()
	require.NoError(t, err)
	assert.Equal(t, totalsdk.Owner{Type: totalsdk.OwnerProperty, ID: 12}, owner)
}

func TestConfig_Tokens(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.LoggedIn())

	cfg.SetTokens(totalsdk.Tokens{IDToken: "id", RefreshToken: "refresh"})
	assert.True(t, cfg.LoggedIn())
	assert.Equal(t, "id", cfg.Tokens().IDToken)

	cfg.ClearTokens()
	assert.False(t, cfg.LoggedIn())
	assert.True(t, cfg.Tokens().Empty())
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.json")

	cfg := &Config{
		ServerURL:    "http://127.0.0.1:8080",
		Email:        "ana@example.com",
		IDToken:      "id",
		RefreshToken: "refresh",
		OwnerType:    "TENANT",
		OwnerID:      42,
		DropDir:      tmp,
		Path:         path,
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
	assert.NoFileExists(t, path+".tmp")
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmp := t.TempDir()

	_, err := LoadFromFile(filepath.Join(tmp, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(tmp, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}
