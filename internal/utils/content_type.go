package utils

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

// DetectContentType sniffs the file header and falls back to the extension.
func DetectContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err == nil && mt != nil && mt.String() != defaultContentType {
		return mt.String()
	}

	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}

	return defaultContentType
}
