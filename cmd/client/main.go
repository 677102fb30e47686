package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/totalapp/tenantfiles/internal/client/config"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
	"github.com/totalapp/tenantfiles/internal/version"
)

const envPrefix = "TOTALAPP"

var (
	rootCmd = newRootCmd()
	// console log level, raised by --verbose
	logLevel = new(slog.LevelVar)
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "totalapp",
		Short:         "TotalApp tenant files CLI",
		Version:       version.Detailed(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logLevel.Set(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().SortFlags = false
	cmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	cmd.PersistentFlags().StringP("server", "s", "", "TotalApp API url")
	cmd.PersistentFlags().StringP("output", "o", string(formatTable), "output format: table, json or yaml")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().Bool("debug", false, "dump HTTP requests")

	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newFilesCmd(),
		newTenantsCmd(),
		newPresetsCmd(),
		newConfigPathCmd(),
		newVersionCmd(),
	)
	return cmd
}

func main() {
	// best effort, a missing .env is normal
	_ = godotenv.Load()

	logFile, err := openLogFile(config.DefaultLogFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logLevel.Set(slog.LevelWarn)
	slog.SetDefault(newLogger(os.Stderr, logFile, logLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
}

// newLogger logs to the terminal at level, and everything at debug to file
func newLogger(console *os.File, file io.Writer, level slog.Leveler) *slog.Logger {
	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(console.Fd()),
	})
	fileHandler := slog.NewTextHandler(utils.NewLineStamper(file), &slog.HandlerOptions{
		Level: slog.LevelDebug,
		// the stamper adds its own timestamp
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(utils.NewFanoutHandler(consoleHandler, fileHandler))
}

// loadConfig merges, lowest first: config file, TOTALAPP_* env, flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := resolveConfigPath(cmd)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if flag := cmd.Flag("server"); flag != nil {
		_ = v.BindPFlag("server_url", flag)
	}

	cfg := &config.Config{
		Path:         path,
		ServerURL:    v.GetString("server_url"),
		Email:        v.GetString("email"),
		IDToken:      v.GetString("id_token"),
		RefreshToken: v.GetString("refresh_token"),
		OwnerType:    v.GetString("owner_type"),
		OwnerID:      v.GetInt64("owner_id"),
		JournalPath:  v.GetString("journal_path"),
		DropDir:      v.GetString("drop_dir"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %s\n", red.Render("ERROR"), totalsdk.UserMessage(err, err.Error()))
}
