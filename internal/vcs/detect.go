package vcs

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DetectFormat finds the resource's format by matching the repository files
// against the locator path with a wildcard format. The first match (sorted by
// path) whose extension is one of known wins.
func DetectFormat(ctx context.Context, lister FileLister, loc Locator, known []string) (string, error) {
	files, err := lister.ListFiles(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}

	pattern := loc.WithFormat("*").Path()
	format, ok := matchFormat(files, pattern, known)
	if !ok {
		return "", fmt.Errorf("no resource matching %q with a known format", pattern)
	}
	return format, nil
}

func matchFormat(files []string, pattern string, known []string) (string, bool) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	for _, f := range sorted {
		f = strings.ReplaceAll(f, "\\", "/")
		matched, err := doublestar.Match(pattern, f)
		if err != nil || !matched {
			continue
		}
		ext := strings.TrimPrefix(path.Ext(f), ".")
		for _, k := range known {
			if ext == k {
				return ext, true
			}
		}
	}
	return "", false
}
