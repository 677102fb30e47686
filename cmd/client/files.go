package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/staging"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Stage, commit and download owner files",
	}
	cmd.AddCommand(
		newFilesUseCmd(),
		newFilesListCmd(),
		newFilesStagedCmd(),
		newFilesPendingCmd(),
		newFilesStageCmd(),
		newFilesRemoveCmd(),
		newFilesClearCmd(),
		newFilesCommitCmd(),
		newFilesUploadCmd(),
		newFilesDownloadCmd(),
		newFilesZipCmd(),
		newFilesWatchCmd(),
	)
	return cmd
}

func newFilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use TYPE/ID",
		Short: "Set the default owner for file commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			cfg.SetDefaultOwner(owner)
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default owner set to %s\n", green.Render(owner.String()))
			return nil
		},
	}
}

func newFilesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List files committed to an owner",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := a.owner(cmd)
			if err != nil {
				return err
			}
			files, err := a.api.Files.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if ok, err := p.structured(files); ok {
				return err
			}
			return p.table(committedHeaders, committedRows(files))
		},
	}
	addOwnerFlag(cmd)
	return cmd
}

func newFilesStagedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staged",
		Short: "Show files staged for an owner but not committed yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			return withSession(cmd, func(session *staging.Session) error {
				staged := session.Staged()
				if ok, err := p.structured(staged); ok {
					return err
				}
				return p.table(stagedHeaders, stagedRows(staged))
			})
		},
	}
	addOwnerFlag(cmd)
	return cmd
}

func newFilesPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List owners with staged files left in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			j, release, err := a.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			pending, err := j.Pending(cmd.Context())
			if err != nil {
				return err
			}

			type entry struct {
				Owner  string `json:"owner"`
				Staged int    `json:"staged"`
			}
			entries := make([]entry, 0, len(pending))
			rows := make([][]string, 0, len(pending))
			for _, owner := range sortedOwners(pending) {
				entries = append(entries, entry{Owner: owner.String(), Staged: pending[owner]})
				rows = append(rows, []string{owner.String(), fmt.Sprint(pending[owner])})
			}
			if ok, err := p.structured(entries); ok {
				return err
			}
			return p.table([]string{"OWNER", "STAGED"}, rows)
		},
	}
}

func newFilesStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage PATH...",
		Short: "Upload files to the staging area without committing them",
		Long:  "Upload files to the staging area without committing them. Paths may be glob patterns such as 'scans/**/*.pdf'.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			return withSession(cmd, func(session *staging.Session) error {
				staged, err := stagePaths(cmd, session, args)
				if err != nil {
					return err
				}
				if ok, err := p.structured(staged); ok {
					return err
				}
				p.line("Staged %s for %s", green.Render(plural(len(staged), "file")), session.Owner())
				return p.table(stagedHeaders, stagedRows(staged))
			})
		},
	}
	addOwnerFlag(cmd)
	return cmd
}

func newFilesRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove TEMP_ID...",
		Aliases: []string{"rm"},
		Short:   "Drop staged files before they are committed",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(session *staging.Session) error {
				var missing []string
				for _, id := range args {
					if !session.RemoveStaged(id) {
						missing = append(missing, id)
					}
				}
				removed := len(args) - len(missing)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(removed, "staged file"))
				if len(missing) > 0 {
					return fmt.Errorf("not staged: %v", missing)
				}
				return nil
			})
		},
	}
	addOwnerFlag(cmd)
	return cmd
}

func newFilesClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard every staged file of an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := a.owner(cmd)
			if err != nil {
				return err
			}
			session, release, err := a.openSession(cmd.Context(), owner)
			if err != nil {
				return err
			}
			defer release()

			count := len(session.Staged())
			if err := session.End(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded %s\n", plural(count, "staged file"))
			return nil
		},
	}
	addOwnerFlag(cmd)
	return cmd
}

func newFilesCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Save staged files to the owner",
		Long: `Save staged files to the owner.

Files whose name matches an existing file need a decision: overwrite the
existing file or keep both. Without --overwrite or --keep-both the choice is
asked interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := policyFromFlags(cmd)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			return withSession(cmd, func(session *staging.Session) error {
				summary, err := commitStaged(cmd.Context(), session, policy, isInteractive())
				if printErr := p.commitSummary(session, summary); printErr != nil && err == nil {
					err = printErr
				}
				return err
			})
		},
	}
	addOwnerFlag(cmd)
	addPolicyFlags(cmd)
	return cmd
}

func newFilesUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Stage and commit files in one step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := policyFromFlags(cmd)
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			return withSession(cmd, func(session *staging.Session) error {
				if _, err := stagePaths(cmd, session, args); err != nil {
					return err
				}
				summary, err := commitStaged(cmd.Context(), session, policy, isInteractive())
				if printErr := p.commitSummary(session, summary); printErr != nil && err == nil {
					err = printErr
				}
				return err
			})
		},
	}
	addOwnerFlag(cmd)
	addPolicyFlags(cmd)
	return cmd
}

func newFilesDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download FILE_ID DEST",
		Short: "Download one committed file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dest, err := utils.ResolvePath(args[1])
			if err != nil {
				return err
			}
			if err := a.api.Files.Download(cmd.Context(), args[0], dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", green.Render(dest))
			return nil
		},
	}
}

func newFilesZipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zip DEST.zip FILE_ID...",
		Short: "Download several committed files as one zip archive",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dest, err := utils.ResolvePath(args[0])
			if err != nil {
				return err
			}
			if err := a.api.Files.DownloadZip(cmd.Context(), args[1:], dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", plural(len(args)-1, "file"), green.Render(dest))
			return nil
		},
	}
}

// withSession runs fn on the owner's journaled session and keeps whatever is
// still staged afterwards for the next command.
func withSession(cmd *cobra.Command, fn func(*staging.Session) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	owner, err := a.owner(cmd)
	if err != nil {
		return err
	}
	session, release, err := a.openSession(cmd.Context(), owner)
	if err != nil {
		return err
	}
	defer release()
	defer session.Detach()

	return fn(session)
}

func stagePaths(cmd *cobra.Command, session *staging.Session, patterns []string) ([]totalsdk.StagedFile, error) {
	paths, err := utils.ExpandPaths(patterns)
	if err != nil {
		return nil, err
	}
	return session.Upload(cmd.Context(), localFiles(paths))
}

func localFiles(paths []string) []totalsdk.LocalFile {
	files := make([]totalsdk.LocalFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, totalsdk.LocalFile{Path: p})
	}
	return files
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
