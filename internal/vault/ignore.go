package vault

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFile at the vault root lists gitignore-style patterns of documents
// the sync never touches.
const IgnoreFile = ".notionsyncignore"

var defaultIgnoreLines = []string{
	"*.excalidraw.md",
	"**/*.sync-conflict-*",
	"**/*conflicted copy*",
}

// ignoreList compiles the defaults plus the rules of the vault's ignore
// file. An unreadable ignore file is logged and the defaults still apply.
func (v *Vault) ignoreList() *gitignore.GitIgnore {
	lines := append([]string(nil), defaultIgnoreLines...)

	file := filepath.Join(v.root, IgnoreFile)
	content, err := os.ReadFile(file)
	switch {
	case err == nil:
		for _, line := range strings.Split(string(content), "\n") {
			if line = strings.TrimRight(line, "\r"); line != "" {
				lines = append(lines, line)
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		slog.Warn("vault ignore file", "path", file, "error", err)
	}

	return gitignore.CompileIgnoreLines(lines...)
}

// Ignored reports whether the document at rel is excluded from sync.
func (v *Vault) Ignored(rel string) bool {
	rel = cleanRel(rel)
	return hidden(rel) || v.ignoreList().MatchesPath(rel)
}
