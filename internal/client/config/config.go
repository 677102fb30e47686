package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultDir         = filepath.Join(home, ".totalapp")
	DefaultConfigPath  = filepath.Join(DefaultDir, "config.json")
	DefaultJournalPath = filepath.Join(DefaultDir, "staging.db")
	DefaultLogFilePath = filepath.Join(DefaultDir, "logs", "totalapp.log")
	DefaultServerURL   = totalsdk.DefaultBaseURL
)

var ErrNotLoggedIn = errors.New("not logged in")

type Config struct {
	ServerURL    string `json:"server_url"`
	Email        string `json:"email,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// owner used when a command is not given one
	OwnerType   string `json:"owner_type,omitempty"`
	OwnerID     int64  `json:"owner_id,omitempty"`
	JournalPath string `json:"journal_path"`
	DropDir     string `json:"drop_dir,omitempty"`
	Path        string `json:"-"`
}

// Validate normalizes paths and the server URL, filling in defaults
func (c *Config) Validate() error {
	var err error

	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.ServerURL, err = utils.NormalizeURL(c.ServerURL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}

	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	if c.Path == "" {
		c.Path = DefaultConfigPath
	}
	if c.Path, err = utils.ResolvePath(c.Path); err != nil {
		return fmt.Errorf("config path: %w", err)
	}

	if c.JournalPath == "" {
		c.JournalPath = filepath.Join(filepath.Dir(c.Path), filepath.Base(DefaultJournalPath))
	}
	if c.JournalPath, err = utils.ResolvePath(c.JournalPath); err != nil {
		return fmt.Errorf("journal path: %w", err)
	}

	if c.DropDir != "" {
		if c.DropDir, err = utils.ResolvePath(c.DropDir); err != nil {
			return fmt.Errorf("drop dir: %w", err)
		}
	}

	if c.OwnerType != "" || c.OwnerID != 0 {
		if _, err := c.DefaultOwner(); err != nil {
			return fmt.Errorf("default owner: %w", err)
		}
	}

	return nil
}

// DefaultOwner returns the configured owner, or an error if none is set
func (c *Config) DefaultOwner() (totalsdk.Owner, error) {
	ownerType, err := totalsdk.ParseOwnerType(c.OwnerType)
	if err != nil {
		return totalsdk.Owner{}, err
	}
	owner := totalsdk.Owner{Type: ownerType, ID: c.OwnerID}
	if err := owner.Validate(); err != nil {
		return totalsdk.Owner{}, err
	}
	return owner, nil
}

func (c *Config) SetDefaultOwner(owner totalsdk.Owner) {
	c.OwnerType = owner.Type.String()
	c.OwnerID = owner.ID
}

func (c *Config) LoggedIn() bool {
	return c.RefreshToken != ""
}

func (c *Config) Tokens() totalsdk.Tokens {
	return totalsdk.Tokens{IDToken: c.IDToken, RefreshToken: c.RefreshToken}
}

func (c *Config) SetTokens(tokens totalsdk.Tokens) {
	c.IDToken = tokens.IDToken
	c.RefreshToken = tokens.RefreshToken
}

func (c *Config) ClearTokens() {
	c.IDToken = ""
	c.RefreshToken = ""
}

// Save writes the config to c.Path. The file holds tokens, so it is only
// readable by the owner.
func (c *Config) Save() error {
	if c.Path == "" {
		return errors.New("config path not set")
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// write then rename so a crash never leaves a truncated config
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.Path)
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Path = path

	return &cfg, nil
}
