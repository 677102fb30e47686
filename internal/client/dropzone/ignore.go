package dropzone

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/totalapp/tenantfiles/internal/utils"
)

const IgnoreFile = ".totalignore"

var defaultIgnoreLines = []string{
	IgnoreFile,
	// partial downloads and editor temp files
	"*.part",
	"*.crdownload",
	"*.download",
	"*.tmp",
	"*.swp",
	"~$*",
	".~lock.*#",
	// OS-specific
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"Icon\r",
	// VCS
	".git/",
}

// IgnoreList decides which paths under the drop directory are never staged
type IgnoreList struct {
	baseDir string
	ignore  *gitignore.GitIgnore
	rules   int
}

func NewIgnoreList(baseDir string) *IgnoreList {
	return &IgnoreList{baseDir: baseDir}
}

// Load compiles the defaults plus the rules in baseDir/.totalignore, if present
func (l *IgnoreList) Load() {
	lines := append([]string(nil), defaultIgnoreLines...)
	l.rules = 0

	path := filepath.Join(l.baseDir, IgnoreFile)
	if utils.FileExists(path) {
		file, err := os.Open(path)
		if err != nil {
			slog.Warn("dropzone: open ignore file", "path", path, "error", err)
		} else {
			defer file.Close()
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimRight(scanner.Text(), "\r")
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				lines = append(lines, line)
				l.rules++
			}
			if err := scanner.Err(); err != nil {
				slog.Warn("dropzone: read ignore file", "path", path, "error", err)
			}
		}
	}

	l.ignore = gitignore.CompileIgnoreLines(lines...)
}

// Rules is the number of custom rules loaded from the ignore file
func (l *IgnoreList) Rules() int {
	return l.rules
}

// ShouldIgnore accepts paths relative to the base dir or absolute paths under it
func (l *IgnoreList) ShouldIgnore(path string) bool {
	if l.ignore == nil {
		l.Load()
	}
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(l.baseDir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return false
		}
		path = rel
	}
	return l.ignore.MatchesPath(filepath.ToSlash(path))
}
