package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/client/dropzone"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

func newFilesWatchCmd() *cobra.Command {
	var existing bool
	var autoCommit bool
	var quiet time.Duration

	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Stage files dropped into a directory as they appear",
		Long: `Stage files dropped into a directory as they appear.

Files matching the rules in DIR/.totalignore are skipped. With --commit every
batch is committed right away; duplicates are kept next to existing files
unless --overwrite is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := policyFromFlags(cmd)
			if err != nil {
				return err
			}
			if policy == policyAsk {
				policy = policyKeepBoth
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := a.cfg.DropDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and drop_dir is not configured")
			}

			watcher, err := dropzone.New(dir, dropzone.WithQuietPeriod(quiet))
			if err != nil {
				return err
			}

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

			p, err := newPrinter(cmd)
			if err != nil {
				return err
			}
			handle := func(ctx context.Context, paths []string) error {
				staged, err := session.Upload(ctx, localFiles(paths))
				if err != nil {
					p.line("%s %s", red.Render("ERROR"), session.Err())
					return err
				}
				p.line("Staged %s: %s", plural(len(staged), "file"), strings.Join(baseNames(paths), ", "))
				if !autoCommit {
					return nil
				}
				// a failed commit leaves the batch staged for the next one
				summary, err := commitStaged(ctx, session, policy, false)
				_ = p.commitSummary(session, summary)
				if err != nil {
					p.line("%s %s", red.Render("ERROR"), totalsdk.UserMessage(err, session.Err()))
				}
				return nil
			}

			if existing {
				paths, err := watcher.Existing()
				if err != nil {
					return err
				}
				if len(paths) > 0 {
					if err := handle(cmd.Context(), paths); err != nil {
						return err
					}
				}
			}

			p.line("Watching %s for %s (Ctrl+C to stop)", cyan.Render(watcher.Dir()), owner)
			return watcher.Run(cmd.Context(), handle)
		},
	}

	cmd.Flags().BoolVar(&existing, "existing", false, "stage files already in the directory first")
	cmd.Flags().BoolVar(&autoCommit, "commit", false, "commit each batch after staging it")
	cmd.Flags().DurationVar(&quiet, "quiet", dropzone.DefaultQuietPeriod, "how long writes must pause before a batch is staged")
	addOwnerFlag(cmd)
	addPolicyFlags(cmd)
	return cmd
}
