package staging

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

type options struct {
	journal            Journal
	messages           Messages
	overwriteByDefault bool
	reloadAfterCommit  bool
	newBatchID         func() string
	logger             *slog.Logger

	onUploadComplete func([]totalsdk.StagedFile)
	onCommitComplete func([]totalsdk.CommittedFile)
	onError          func(string)
}

func defaultOptions() options {
	return options{
		messages:           DefaultMessages(),
		overwriteByDefault: true,
		reloadAfterCommit:  true,
		newBatchID:         uuid.NewString,
		logger:             slog.Default(),
	}
}

type Option func(*options)

// WithJournal persists the staged list so a later Begin for the same owner resumes it
func WithJournal(j Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

func WithMessages(m Messages) Option {
	return func(o *options) {
		o.messages = m.withDefaults()
	}
}

// WithOverwriteByDefault sets whether duplicates start out selected for overwrite
func WithOverwriteByDefault(v bool) Option {
	return func(o *options) {
		o.overwriteByDefault = v
	}
}

// WithReloadAfterCommit re-lists committed files after every successful commit
func WithReloadAfterCommit(v bool) Option {
	return func(o *options) {
		o.reloadAfterCommit = v
	}
}

// WithBatchIDs sets the generator for per-upload batch ids. Returning "" sends none.
func WithBatchIDs(fn func() string) Option {
	return func(o *options) {
		o.newBatchID = fn
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func OnUploadComplete(fn func([]totalsdk.StagedFile)) Option {
	return func(o *options) {
		o.onUploadComplete = fn
	}
}

func OnCommitComplete(fn func([]totalsdk.CommittedFile)) Option {
	return func(o *options) {
		o.onCommitComplete = fn
	}
}

// OnError receives the user-facing message of every failure
func OnError(fn func(string)) Option {
	return func(o *options) {
		o.onError = fn
	}
}
