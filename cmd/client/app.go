package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/client/config"
	"github.com/totalapp/tenantfiles/internal/client/journal"
	"github.com/totalapp/tenantfiles/internal/staging"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

const journalLockTimeout = 5 * time.Second

// app is what a logged-in command works with
type app struct {
	cfg *config.Config
	api *totalsdk.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.LoggedIn() {
		return nil, fmt.Errorf("%w: run 'totalapp login' first", config.ErrNotLoggedIn)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	api, err := totalsdk.New(&totalsdk.Config{
		BaseURL:      cfg.ServerURL,
		IDToken:      cfg.IDToken,
		RefreshToken: cfg.RefreshToken,
		Debug:        debug,
		OnTokensRefreshed: func(tokens totalsdk.Tokens) {
			cfg.SetTokens(tokens)
			if err := cfg.Save(); err != nil {
				slog.Warn("save refreshed tokens", "error", err)
			}
		},
		OnTokensCleared: func() {
			cfg.ClearTokens()
			if err := cfg.Save(); err != nil {
				slog.Warn("clear tokens", "error", err)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, api: api}, nil
}

func (a *app) Close() {
	a.api.Close()
}

// owner resolves the --owner flag, falling back to the configured default
func (a *app) owner(cmd *cobra.Command) (totalsdk.Owner, error) {
	if flag := cmd.Flag("owner"); flag != nil && flag.Value.String() != "" {
		return parseOwner(flag.Value.String())
	}
	owner, err := a.cfg.DefaultOwner()
	if err != nil {
		return totalsdk.Owner{}, fmt.Errorf("no owner given: pass --owner TYPE/ID or run 'totalapp files use TYPE/ID'")
	}
	return owner, nil
}

// parseOwner reads "TYPE/ID", e.g. "TENANT/42" or "rental-space/7"
func parseOwner(s string) (totalsdk.Owner, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return totalsdk.Owner{}, fmt.Errorf("owner %q: expected TYPE/ID", s)
	}
	ownerType, err := totalsdk.ParseOwnerType(typ)
	if err != nil {
		return totalsdk.Owner{}, err
	}
	ownerID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return totalsdk.Owner{}, fmt.Errorf("%w: %q", totalsdk.ErrInvalidOwnerID, id)
	}
	owner := totalsdk.Owner{Type: ownerType, ID: ownerID}
	return owner, owner.Validate()
}

// openJournal opens and locks the staging journal. The returned func
// releases both.
func (a *app) openJournal(ctx context.Context) (*journal.Journal, func(), error) {
	j := journal.New(a.cfg.JournalPath)

	lockCtx, cancel := context.WithTimeout(ctx, journalLockTimeout)
	defer cancel()
	if err := j.Lock(lockCtx); err != nil {
		if errors.Is(err, journal.ErrJournalLocked) {
			return nil, nil, fmt.Errorf("another totalapp command is using %s", a.cfg.JournalPath)
		}
		return nil, nil, err
	}

	if err := j.Open(); err != nil {
		_ = j.Unlock()
		return nil, nil, err
	}

	return j, func() {
		if err := j.Close(); err != nil {
			slog.Warn("close journal", "error", err)
		}
		if err := j.Unlock(); err != nil {
			slog.Warn("unlock journal", "error", err)
		}
	}, nil
}

// openSession resumes the owner's staging session from the journal
func (a *app) openSession(ctx context.Context, owner totalsdk.Owner, opts ...staging.Option) (*staging.Session, func(), error) {
	j, release, err := a.openJournal(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]staging.Option{
		staging.WithJournal(j),
		staging.WithLogger(slog.Default()),
	}, opts...)

	session, err := staging.Begin(ctx, a.api.Files, owner, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return session, release, nil
}

func addOwnerFlag(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "owner as TYPE/ID, e.g. TENANT/42 (default from config)")
}
