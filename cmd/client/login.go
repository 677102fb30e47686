package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/client/config"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
)

func newLoginCmd() *cobra.Command {
	var passwordStdin bool
	var force bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to TotalApp and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cfg.LoggedIn() && !force {
				if !quiet {
					fmt.Fprintln(out, green.Render("**Already logged in**"))
					logConfig(out, cfg)
				}
				return nil
			}

			var tokens totalsdk.Tokens
			login := func(password string) error {
				res, err := totalsdk.Login(cmd.Context(), cfg.ServerURL, password)
				if err != nil {
					return err
				}
				tokens = res.Tokens
				return nil
			}

			if passwordStdin {
				password, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if err := login(password); err != nil {
					return err
				}
			} else {
				if err := RunLoginTUI(LoginTUIOpts{
					ServerURL:     cfg.ServerURL,
					ConfigPath:    cfg.Path,
					SubmitHandler: login,
				}); err != nil {
					return err
				}
			}

			cfg.SetTokens(tokens)
			if err := cfg.Save(); err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(out, green.Render("Logged in"))
				logConfig(out, cfg)
			}
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "log in again even with a stored session")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable output")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.LoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("Not logged in"))
				return nil
			}
			cfg.ClearTokens()
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green.Render("Logged out"))
			return nil
		},
	}
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("read password: empty")
	}
	return password, nil
}

func logConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, cyan.Bold(true).Render("TOTALAPP CONFIG"))
	fmt.Fprintf(w, "%s%s\n", gray.Render("Server  "), cfg.ServerURL)
	fmt.Fprintf(w, "%s%s\n", gray.Render("Config  "), cfg.Path)
	fmt.Fprintf(w, "%s%s\n", gray.Render("Journal "), cfg.JournalPath)
	if cfg.Email != "" {
		fmt.Fprintf(w, "%s%s\n", gray.Render("Email   "), cfg.Email)
	}
	if owner, err := cfg.DefaultOwner(); err == nil {
		fmt.Fprintf(w, "%s%s\n", gray.Render("Owner   "), owner)
	}
	if cfg.RefreshToken != "" {
		fmt.Fprintf(w, "%s%s\n", gray.Render("Session "), utils.MaskSecret(cfg.RefreshToken))
	}
}
