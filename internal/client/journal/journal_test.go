package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

func openJournal(t *testing.T, path string) *Journal {
	t.Helper()
	j := New(path)
	require.NoError(t, j.Open())
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "staging.db")
	j := openJournal(t, path)

	tenant := totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 3}
	car := totalsdk.Owner{Type: totalsdk.OwnerCar, ID: 3}
	mod := time.Date(2024, 2, 29, 8, 15, 0, 500_000_000, time.UTC)

	files := []totalsdk.StagedFile{
		{TempID: "t2", BatchID: "b", Filename: "z.pdf", ContentType: "application/pdf", SizeBytes: 10, ModifiedAt: &mod},
		{TempID: "t1", Filename: "a.txt"},
	}
	require.NoError(t, j.Save(ctx, tenant, files))
	require.NoError(t, j.Save(ctx, car, []totalsdk.StagedFile{{TempID: "t9", Filename: "itp.jpg"}}))

	got, err := j.Load(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].TempID, "staging order is kept")
	assert.Equal(t, "t1", got[1].TempID)
	require.NotNil(t, got[0].ModifiedAt)
	assert.True(t, mod.Equal(*got[0].ModifiedAt))
	assert.Nil(t, got[1].ModifiedAt)
	assert.Equal(t, files[0].ContentType, got[0].ContentType)

	// save replaces the set
	require.NoError(t, j.Save(ctx, tenant, files[1:]))
	got, err = j.Load(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, []string{got[0].TempID})

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[totalsdk.Owner]int{tenant: 1, car: 1}, pending)

	require.NoError(t, j.Save(ctx, tenant, nil))
	got, err = j.Load(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, got)

	// survives reopen
	require.NoError(t, j.Close())
	j2 := openJournal(t, path)
	got, err = j2.Load(ctx, car)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestJournal_NotOpen(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "x.db"))
	_, err := j.Load(context.Background(), totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 1})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, j.Save(context.Background(), totalsdk.Owner{}, nil), ErrNotOpen)
}

func TestJournal_Lock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging.db")
	a := New(path)
	b := New(path)

	require.NoError(t, a.Lock(context.Background()))
	defer a.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Lock(ctx), ErrJournalLocked)

	require.NoError(t, a.Unlock())
	require.NoError(t, b.Lock(context.Background()))
	require.NoError(t, b.Unlock())
	require.NoError(t, b.Unlock(), "unlock is idempotent")
}
