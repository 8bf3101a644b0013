// Package files expands the glob patterns of a package configuration
// into the file list stored in metadata.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goreleaser/fileglob"
)

// ErrGlobNoMatch happens when a pattern matches no files.
type ErrGlobNoMatch struct {
	glob string
}

func (e ErrGlobNoMatch) Error() string {
	return fmt.Sprintf("glob failed: %s: no matching files", e.glob)
}

// Expand resolves the given patterns relative to the working directory
// and returns the matched regular files and symlinks as sorted,
// slash-delimited, deduplicated relative paths. Directories matched by a
// pattern contribute their contents.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	for _, pattern := range patterns {
		matches, err := fileglob.Glob(pattern, fileglob.MatchDirectoryIncludesContents, fileglob.MaybeRootFS)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ErrGlobNoMatch{pattern}
			}
			return nil, fmt.Errorf("glob failed: %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, ErrGlobNoMatch{pattern}
		}
		for _, match := range matches {
			fi, err := os.Lstat(match)
			if err != nil {
				return nil, err
			}
			if fi.IsDir() {
				continue
			}
			seen[filepath.ToSlash(filepath.Clean(match))] = true
		}
	}

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}
