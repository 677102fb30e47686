package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/totalapp/tenantfiles/internal/staging"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

// duplicatePolicy is how a commit settles files whose name already exists
type duplicatePolicy int

const (
	policyAsk duplicatePolicy = iota
	policyOverwrite
	policyKeepBoth
)

var errDuplicatesUndecided = errors.New("some staged files already exist: rerun with --overwrite or --keep-both")

// isInteractive is replaced in tests
var isInteractive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("overwrite", false, "replace existing files with the same name")
	cmd.Flags().Bool("keep-both", false, "keep existing files with the same name next to the new ones")
	cmd.MarkFlagsMutuallyExclusive("overwrite", "keep-both")
}

func policyFromFlags(cmd *cobra.Command) (duplicatePolicy, error) {
	overwrite, err := cmd.Flags().GetBool("overwrite")
	if err != nil {
		return policyAsk, err
	}
	keepBoth, err := cmd.Flags().GetBool("keep-both")
	if err != nil {
		return policyAsk, err
	}
	switch {
	case overwrite:
		return policyOverwrite, nil
	case keepBoth:
		return policyKeepBoth, nil
	default:
		return policyAsk, nil
	}
}

type commitSummary struct {
	Committed   []totalsdk.CommittedFile `json:"committed"`
	Overwritten []totalsdk.CommittedFile `json:"overwritten"`
	KeptBoth    []totalsdk.CommittedFile `json:"keptBoth"`
	// Undecided lists duplicates left staged because no choice was made
	Undecided []string `json:"undecided,omitempty"`
	Cancelled bool     `json:"cancelled,omitempty"`
}

func (s *commitSummary) total() int {
	return len(s.Committed) + len(s.Overwritten) + len(s.KeptBoth)
}

// commitStaged commits the session's staged files and settles duplicates
// according to policy. The summary is filled in as far as the commit got,
// also when an error is returned.
func commitStaged(ctx context.Context, session *staging.Session, policy duplicatePolicy, interactive bool) (*commitSummary, error) {
	summary := &commitSummary{}

	if err := session.LoadFiles(ctx); err != nil {
		return summary, err
	}

	result, err := session.Commit(ctx)
	if err != nil {
		return summary, err
	}
	summary.Committed = result.Committed

	resolution := result.Resolution
	if resolution == nil {
		return summary, nil
	}

	switch policy {
	case policyOverwrite:
		resolution.SetAll(true)
	case policyKeepBoth:
		resolution.SetAll(false)
	default:
		if !interactive {
			summary.Undecided = candidateNames(resolution)
			_ = session.CancelResolution()
			return summary, errDuplicatesUndecided
		}
		confirmed, err := RunResolveTUI(resolution)
		if err != nil || !confirmed {
			summary.Undecided = candidateNames(resolution)
			summary.Cancelled = true
			_ = session.CancelResolution()
			return summary, err
		}
	}

	resolved, err := session.ConfirmResolution(ctx)
	if resolved != nil {
		summary.Overwritten = resolved.Overwritten
		summary.KeptBoth = resolved.KeptBoth
	}
	return summary, err
}

func candidateNames(resolution *staging.Resolution) []string {
	candidates := resolution.Candidates()
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Staged.Filename
	}
	return names
}

func (p *printer) commitSummary(session *staging.Session, summary *commitSummary) error {
	if summary == nil {
		return nil
	}
	if ok, err := p.structured(summary); ok {
		return err
	}

	if summary.total() > 0 {
		p.line("Saved %s to %s", green.Render(plural(summary.total(), "file")), session.Owner())
		if len(summary.Overwritten) > 0 {
			p.line("  %s", yellow.Render(fmt.Sprintf("%d overwritten", len(summary.Overwritten))))
		}
		if len(summary.KeptBoth) > 0 {
			p.line("  %s", lightGray.Render(fmt.Sprintf("%d kept next to existing files", len(summary.KeptBoth))))
		}
		all := slices.Concat(summary.Committed, summary.Overwritten, summary.KeptBoth)
		if err := p.table(committedHeaders, committedRows(all)); err != nil {
			return err
		}
	} else if len(summary.Undecided) == 0 {
		p.line("%s", gray.Render("Nothing to commit"))
	}

	if summary.Cancelled {
		p.line("Cancelled, %s stay staged", plural(len(summary.Undecided), "file"))
	} else if len(summary.Undecided) > 0 {
		p.line("Already exist: %v", summary.Undecided)
	}
	if msg := session.Err(); msg != "" {
		p.line("%s", red.Render(msg))
	}
	return nil
}

func sortedOwners(m map[totalsdk.Owner]int) []totalsdk.Owner {
	owners := make([]totalsdk.Owner, 0, len(m))
	for o := range m {
		owners = append(owners, o)
	}
	slices.SortFunc(owners, func(a, b totalsdk.Owner) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.ID, b.ID))
	})
	return owners
}
