package dropzone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreList_DefaultAndCustomRules(t *testing.T) {
	baseDir := t.TempDir()
	ignore := NewIgnoreList(baseDir)
	ignore.Load()

	assert.True(t, ignore.ShouldIgnore("report.pdf.part"))
	assert.True(t, ignore.ShouldIgnore("~$contract.docx"))
	assert.True(t, ignore.ShouldIgnore(".DS_Store"))
	assert.True(t, ignore.ShouldIgnore(IgnoreFile))
	assert.True(t, ignore.ShouldIgnore(filepath.Join(baseDir, "sub", "Thumbs.db")))
	assert.False(t, ignore.ShouldIgnore("contract.pdf"))
	assert.Equal(t, 0, ignore.Rules())

	custom := []byte(`
# scans in progress
scans/**
*.bak
`)
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, IgnoreFile), custom, 0o644))
	ignore.Load()

	assert.Equal(t, 2, ignore.Rules())
	assert.True(t, ignore.ShouldIgnore("scans/page1.jpg"))
	assert.True(t, ignore.ShouldIgnore(filepath.Join(baseDir, "old.bak")))
	assert.False(t, ignore.ShouldIgnore("invoices/march.pdf"))
}

func TestIgnoreList_OutsideBaseDir_NotIgnored(t *testing.T) {
	ignore := NewIgnoreList(t.TempDir())
	ignore.Load()

	outside := filepath.Join(t.TempDir(), "notes.tmp")
	assert.False(t, ignore.ShouldIgnore(outside))
}
