package staging

import (
	"errors"
	"fmt"

	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

var (
	ErrSessionEnded      = errors.New("staging: session ended")
	ErrNoFiles           = errors.New("staging: no files to upload")
	ErrResolutionPending = errors.New("staging: duplicate resolution pending")
	ErrNoResolution      = errors.New("staging: no duplicate resolution pending")
)

// PartialCommitError reports which duplicate subsets failed. Subsets that
// succeeded are already settled and are listed in Committed.
type PartialCommitError struct {
	OverwriteErr error
	KeepBothErr  error
	Committed    []totalsdk.CommittedFile
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("staging: duplicate commit failed: %v", errors.Join(e.Unwrap()...))
}

func (e *PartialCommitError) Unwrap() []error {
	var errs []error
	if e.OverwriteErr != nil {
		errs = append(errs, fmt.Errorf("overwrite: %w", e.OverwriteErr))
	}
	if e.KeepBothErr != nil {
		errs = append(errs, fmt.Errorf("keep both: %w", e.KeepBothErr))
	}
	return errs
}
