package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
	"github.com/totalapp/tenantfiles/internal/db"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/utils"
)

var (
	ErrJournalLocked = errors.New("journal: locked by another process")
	ErrNotOpen       = errors.New("journal: not open")
)

const lockRetryDelay = 100 * time.Millisecond

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS staged_files (
		owner_type   TEXT    NOT NULL,
		owner_id     INTEGER NOT NULL,
		temp_id      TEXT    NOT NULL,
		batch_id     TEXT    NOT NULL DEFAULT '',
		filename     TEXT    NOT NULL,
		content_type TEXT    NOT NULL DEFAULT '',
		size_bytes   INTEGER NOT NULL DEFAULT 0,
		modified_at  TEXT, -- RFC3339, NULL when unknown
		position     INTEGER NOT NULL,
		PRIMARY KEY (owner_type, owner_id, temp_id)
	);
	CREATE INDEX IF NOT EXISTS idx_staged_owner ON staged_files(owner_type, owner_id, position);`,
}

type stagedRow struct {
	OwnerType   string         `db:"owner_type"`
	OwnerID     int64          `db:"owner_id"`
	TempID      string         `db:"temp_id"`
	BatchID     string         `db:"batch_id"`
	Filename    string         `db:"filename"`
	ContentType string         `db:"content_type"`
	SizeBytes   int64          `db:"size_bytes"`
	ModifiedAt  sql.NullString `db:"modified_at"`
	Position    int            `db:"position"`
}

// Journal keeps the staged list per owner in SQLite so a later CLI
// invocation can resume it. A file lock next to the database keeps two
// processes from driving it at once.
type Journal struct {
	path string
	db   *sqlx.DB
	lock *flock.Flock
}

func New(path string) *Journal {
	return &Journal{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (j *Journal) Open() error {
	if j.db != nil {
		return fmt.Errorf("journal: already open")
	}

	conn, err := db.NewSqliteDB(db.WithPath(j.path), db.WithMaxOpenConns(1), db.WithMigrations(migrations...))
	if err != nil {
		return fmt.Errorf("journal: open %s: %w", j.path, err)
	}
	j.db = conn
	return nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return fmt.Errorf("journal: close: %w", err)
	}
	slog.Debug("journal closed", "path", j.path)
	return nil
}

// Lock waits for the file lock until ctx is done
func (j *Journal) Lock(ctx context.Context) error {
	if err := utils.EnsureParent(j.path); err != nil {
		return fmt.Errorf("journal: lock: %w", err)
	}
	locked, err := j.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return ErrJournalLocked
		}
		return fmt.Errorf("journal: lock: %w", err)
	}
	if !locked {
		return ErrJournalLocked
	}
	return nil
}

func (j *Journal) Unlock() error {
	if !j.lock.Locked() {
		return nil
	}
	if err := j.lock.Unlock(); err != nil {
		return fmt.Errorf("journal: unlock: %w", err)
	}
	return nil
}

// Load returns the owner's staged files in staging order
func (j *Journal) Load(ctx context.Context, owner totalsdk.Owner) ([]totalsdk.StagedFile, error) {
	if j.db == nil {
		return nil, ErrNotOpen
	}

	var rows []stagedRow
	err := j.db.SelectContext(ctx, &rows, `
		SELECT owner_type, owner_id, temp_id, batch_id, filename, content_type, size_bytes, modified_at, position
		FROM staged_files
		WHERE owner_type = ? AND owner_id = ?
		ORDER BY position`, owner.Type.String(), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("journal: load %s: %w", owner, err)
	}

	files := make([]totalsdk.StagedFile, 0, len(rows))
	for _, r := range rows {
		f := totalsdk.StagedFile{
			TempID:      r.TempID,
			BatchID:     r.BatchID,
			Filename:    r.Filename,
			ContentType: r.ContentType,
			SizeBytes:   r.SizeBytes,
		}
		if r.ModifiedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, r.ModifiedAt.String)
			if err != nil {
				slog.Warn("journal: bad modified_at", "tempId", r.TempID, "value", r.ModifiedAt.String)
			} else {
				f.ModifiedAt = &t
			}
		}
		files = append(files, f)
	}
	return files, nil
}

// Save replaces the owner's staged set in one transaction
func (j *Journal) Save(ctx context.Context, owner totalsdk.Owner, files []totalsdk.StagedFile) error {
	if j.db == nil {
		return ErrNotOpen
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staged_files WHERE owner_type = ? AND owner_id = ?`, owner.Type.String(), owner.ID); err != nil {
		return fmt.Errorf("journal: clear %s: %w", owner, err)
	}

	for i, f := range files {
		row := stagedRow{
			OwnerType:   owner.Type.String(),
			OwnerID:     owner.ID,
			TempID:      f.TempID,
			BatchID:     f.BatchID,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			SizeBytes:   f.SizeBytes,
			Position:    i,
		}
		if f.ModifiedAt != nil {
			row.ModifiedAt = sql.NullString{String: f.ModifiedAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}

		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO staged_files (owner_type, owner_id, temp_id, batch_id, filename, content_type, size_bytes, modified_at, position)
			VALUES (:owner_type, :owner_id, :temp_id, :batch_id, :filename, :content_type, :size_bytes, :modified_at, :position)`, row)
		if err != nil {
			return fmt.Errorf("journal: save %s: %w", f.TempID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

// Pending counts staged entries per owner, for every owner that has any
func (j *Journal) Pending(ctx context.Context) (map[totalsdk.Owner]int, error) {
	if j.db == nil {
		return nil, ErrNotOpen
	}

	var rows []struct {
		OwnerType string `db:"owner_type"`
		OwnerID   int64  `db:"owner_id"`
		Count     int    `db:"n"`
	}
	err := j.db.SelectContext(ctx, &rows, `
		SELECT owner_type, owner_id, COUNT(*) AS n
		FROM staged_files
		GROUP BY owner_type, owner_id`)
	if err != nil {
		return nil, fmt.Errorf("journal: pending: %w", err)
	}

	out := make(map[totalsdk.Owner]int, len(rows))
	for _, r := range rows {
		out[totalsdk.Owner{Type: totalsdk.OwnerType(r.OwnerType), ID: r.OwnerID}] = r.Count
	}
	return out, nil
}
