// Package staging stages local files on the server, detects filename
// collisions with files already committed to an owner, and commits them
// under the chosen overwrite policy.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Files is the part of the API a session drives
type Files interface {
	UploadTemp(ctx context.Context, params *totalsdk.UploadTempRequest) ([]totalsdk.StagedFile, error)
	Commit(ctx context.Context, params *totalsdk.CommitRequest) ([]totalsdk.CommittedFile, error)
	List(ctx context.Context, owner totalsdk.Owner) ([]totalsdk.CommittedFile, error)
}

// Journal stores the staged list of an owner between sessions
type Journal interface {
	Load(ctx context.Context, owner totalsdk.Owner) ([]totalsdk.StagedFile, error)
	Save(ctx context.Context, owner totalsdk.Owner, files []totalsdk.StagedFile) error
}

type State int

const (
	StateIdle State = iota
	StateCommitting
	StateAwaitingResolution
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCommitting:
		return "committing"
	case StateAwaitingResolution:
		return "awaiting-resolution"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CommitResult is the outcome of Commit. Resolution is set when some staged
// files collide with committed ones and need a decision.
type CommitResult struct {
	Partition  Partition
	Committed  []totalsdk.CommittedFile
	Resolution *Resolution
}

// ResolutionResult is the outcome of ConfirmResolution
type ResolutionResult struct {
	Overwritten []totalsdk.CommittedFile
	KeptBoth    []totalsdk.CommittedFile
}

func (r *ResolutionResult) Committed() []totalsdk.CommittedFile {
	return slices.Concat(r.Overwritten, r.KeptBoth)
}

// Session is the staging state for one owner. Operations that reach the
// server run one at a time; local edits do not wait on them.
type Session struct {
	files Files
	owner totalsdk.Owner
	opts  options
	log   *slog.Logger

	// admits one network operation at a time
	sem *semaphore.Weighted
	// orders journal writes
	journalMu sync.Mutex

	mu         sync.Mutex
	staged     []totalsdk.StagedFile
	committed  []totalsdk.CommittedFile
	state      State
	resolution *Resolution
	lastErr    string
	ended      bool
}

// Begin opens a session for owner. With a journal, previously staged files
// for the same owner are restored.
func Begin(ctx context.Context, files Files, owner totalsdk.Owner, opts ...Option) (*Session, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		files: files,
		owner: owner,
		opts:  o,
		log:   o.logger.With("owner", owner.String()),
		sem:   semaphore.NewWeighted(1),
	}

	if o.journal != nil {
		restored, err := o.journal.Load(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("staging: restore journal: %w", err)
		}
		s.staged = restored
		if len(restored) > 0 {
			s.log.Debug("staged files restored", "count", len(restored))
		}
	}

	return s, nil
}

// End discards everything staged in this session, including the journal
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.staged = nil
	s.resolution = nil
	s.state = StateIdle
	s.mu.Unlock()

	if s.opts.journal == nil {
		return nil
	}
	s.journalMu.Lock()
	defer s.journalMu.Unlock()
	return s.opts.journal.Save(ctx, s.owner, nil)
}

// Detach closes the session but keeps journaled entries for a later Begin
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.resolution = nil
	s.state = StateIdle
}

func (s *Session) Owner() totalsdk.Owner {
	return s.owner
}

func (s *Session) Staged() []totalsdk.StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.staged)
}

func (s *Session) Committed() []totalsdk.CommittedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.committed)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resolution returns the pending duplicate decision, or nil
func (s *Session) Resolution() *Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// Err is the user-facing message of the last failure, "" if none
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Duplicates runs the detector over the current lists without changing anything
func (s *Session) Duplicates() Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DetectDuplicates(s.staged, s.committed)
}

// acquire admits the caller to a network operation and clears the last error
func (s *Session) acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		s.sem.Release(1)
		return ErrSessionEnded
	}
	s.lastErr = ""
	return nil
}

func (s *Session) release() {
	s.sem.Release(1)
}

func (s *Session) fail(fallback string, err error) {
	msg := totalsdk.UserMessage(err, fallback)

	s.mu.Lock()
	s.lastErr = msg
	if s.state == StateCommitting {
		s.state = StateIdle
	}
	s.mu.Unlock()

	s.log.Error(fallback, "error", err)
	if s.opts.onError != nil {
		s.opts.onError(msg)
	}
}

// Upload stages files on the server in one request and appends the result to
// the staged list. On failure the staged list is unchanged.
func (s *Session) Upload(ctx context.Context, files []totalsdk.LocalFile) ([]totalsdk.StagedFile, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	staged, err := s.files.UploadTemp(ctx, &totalsdk.UploadTempRequest{
		Files:   files,
		BatchID: s.opts.newBatchID(),
	})
	if err != nil {
		s.fail(s.opts.messages.Upload, err)
		return nil, fmt.Errorf("staging: upload: %w", err)
	}

	s.mu.Lock()
	s.staged = append(s.staged, staged...)
	s.mu.Unlock()

	s.log.Info("files staged", "count", len(staged))
	s.persist(ctx)

	if s.opts.onUploadComplete != nil {
		s.opts.onUploadComplete(staged)
	}
	return staged, nil
}

// RemoveStaged drops one staged entry locally. The server copy is left to
// expire. It reports whether the entry existed.
func (s *Session) RemoveStaged(tempID string) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.staged, func(f totalsdk.StagedFile) bool { return f.TempID == tempID })
	if s.ended || idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.staged = slices.Delete(s.staged, idx, idx+1)
	s.dropFromResolutionLocked(tempID)
	s.mu.Unlock()

	s.persist(context.Background())
	return true
}

// ClearStaged empties the staged list locally and drops any pending resolution
func (s *Session) ClearStaged() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.staged = nil
	if s.resolution != nil {
		s.resolution = nil
		s.state = StateIdle
	}
	s.mu.Unlock()

	s.persist(context.Background())
}

func (s *Session) dropFromResolutionLocked(tempIDs ...string) {
	if s.resolution == nil {
		return
	}
	if s.resolution.drop(tempIDs...) == 0 {
		s.resolution = nil
		s.state = StateIdle
	}
}

// LoadFiles replaces the committed list with the server's
func (s *Session) LoadFiles(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return s.load(ctx)
}

func (s *Session) load(ctx context.Context) error {
	committed, err := s.files.List(ctx, s.owner)
	if err != nil {
		s.fail(s.opts.messages.Load, err)
		return fmt.Errorf("staging: load files: %w", err)
	}

	s.mu.Lock()
	s.committed = committed
	s.mu.Unlock()
	return nil
}

// Commit commits every staged file that does not collide with a committed
// one (overwrite=false). Colliding files are held in a Resolution, selected
// for overwrite according to WithOverwriteByDefault, until ConfirmResolution
// or CancelResolution. With nothing staged it does nothing.
func (s *Session) Commit(ctx context.Context) (*CommitResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	s.mu.Lock()
	if s.resolution != nil {
		s.mu.Unlock()
		return nil, ErrResolutionPending
	}
	if len(s.staged) == 0 {
		s.mu.Unlock()
		return &CommitResult{Partition: DetectDuplicates(nil, nil)}, nil
	}
	partition := DetectDuplicates(s.staged, s.committed)
	candidates := duplicateCandidates(partition.Duplicates, s.committed)
	s.state = StateCommitting
	s.mu.Unlock()

	result := &CommitResult{Partition: partition}

	if len(partition.NonDuplicates) > 0 {
		ids := tempIDs(partition.NonDuplicates)
		committed, err := s.commit(ctx, ids, false)
		if err != nil {
			s.fail(s.opts.messages.Commit, err)
			return nil, fmt.Errorf("staging: commit: %w", err)
		}
		s.settle(ids, committed)
		result.Committed = committed
	}

	s.mu.Lock()
	// entries removed while the clean subset was in flight are not offered
	candidates = stillStaged(candidates, s.staged)
	if len(candidates) > 0 {
		s.resolution = newResolution(candidates, s.opts.overwriteByDefault)
		s.state = StateAwaitingResolution
		result.Resolution = s.resolution
	} else {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if len(result.Committed) > 0 {
		s.log.Info("files committed", "count", len(result.Committed), "duplicates", len(partition.Duplicates))
		s.afterCommit(ctx, result.Committed)
	}
	return result, nil
}

// ConfirmResolution commits the overwrite subset with overwrite=true and the
// rest with overwrite=false, concurrently. Each subset settles on its own: a
// failed subset stays staged and is reported through *PartialCommitError.
func (s *Session) ConfirmResolution(ctx context.Context) (*ResolutionResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	s.mu.Lock()
	res := s.resolution
	if res == nil {
		s.mu.Unlock()
		return nil, ErrNoResolution
	}
	overwriteIDs, keepBothIDs := res.split()
	s.resolution = nil
	s.state = StateCommitting
	s.mu.Unlock()

	result := &ResolutionResult{}
	var overwriteErr, keepBothErr error

	// no shared context: a failed subset must not cancel the other one
	var g errgroup.Group
	if len(overwriteIDs) > 0 {
		g.Go(func() error {
			committed, err := s.commit(ctx, overwriteIDs, true)
			if err != nil {
				overwriteErr = err
				return err
			}
			s.settle(overwriteIDs, committed)
			result.Overwritten = committed
			return nil
		})
	}
	if len(keepBothIDs) > 0 {
		g.Go(func() error {
			committed, err := s.commit(ctx, keepBothIDs, false)
			if err != nil {
				keepBothErr = err
				return err
			}
			s.settle(keepBothIDs, committed)
			result.KeptBoth = committed
			return nil
		})
	}
	failed := g.Wait() != nil

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	committed := result.Committed()
	if len(committed) > 0 {
		s.log.Info("duplicates committed", "overwritten", len(result.Overwritten), "keptBoth", len(result.KeptBoth))
		s.afterCommit(ctx, committed)
	}

	if failed {
		partial := &PartialCommitError{
			OverwriteErr: overwriteErr,
			KeepBothErr:  keepBothErr,
			Committed:    committed,
		}
		s.fail(s.opts.messages.CommitDuplicates, partial)
		return result, partial
	}
	return result, nil
}

// CancelResolution discards the pending decision. The duplicates stay staged.
func (s *Session) CancelResolution() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolution == nil {
		return ErrNoResolution
	}
	s.resolution = nil
	s.state = StateIdle
	return nil
}

func (s *Session) commit(ctx context.Context, ids []string, overwrite bool) ([]totalsdk.CommittedFile, error) {
	return s.files.Commit(ctx, &totalsdk.CommitRequest{
		Owner:     s.owner,
		TempIDs:   ids,
		Overwrite: totalsdk.Bool(overwrite),
	})
}

// stillStaged keeps the candidates whose staged entry is still present
func stillStaged(candidates []DuplicateCandidate, staged []totalsdk.StagedFile) []DuplicateCandidate {
	return slices.DeleteFunc(candidates, func(c DuplicateCandidate) bool {
		return !slices.ContainsFunc(staged, func(f totalsdk.StagedFile) bool { return f.TempID == c.Staged.TempID })
	})
}

// settle merges newly committed files and prunes their staged entries
func (s *Session) settle(ids []string, committed []totalsdk.CommittedFile) {
	s.mu.Lock()
	s.committed = append(s.committed, committed...)
	s.staged = slices.DeleteFunc(s.staged, func(f totalsdk.StagedFile) bool {
		return slices.Contains(ids, f.TempID)
	})
	s.mu.Unlock()
}

func (s *Session) afterCommit(ctx context.Context, committed []totalsdk.CommittedFile) {
	s.persist(ctx)

	if s.opts.onCommitComplete != nil {
		s.opts.onCommitComplete(committed)
	}

	if s.opts.reloadAfterCommit {
		// a failed reload leaves the merged list in place
		_ = s.load(ctx)
	}
}

func (s *Session) persist(ctx context.Context) {
	if s.opts.journal == nil {
		return
	}

	s.journalMu.Lock()
	defer s.journalMu.Unlock()

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	snapshot := slices.Clone(s.staged)
	s.mu.Unlock()

	if err := s.opts.journal.Save(ctx, s.owner, snapshot); err != nil {
		s.log.Warn("journal save failed", "error", err)
	}
}
