// Package pathutil keeps user-configured storage paths inside the engine's
// data directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataFile returns the file the engine should use for a storage backend.
//
// When custom is blank the file is defaultName inside dataDir. Otherwise
// custom is resolved with ResolveWithin. dataDir is created if missing so
// symlinks in it can be evaluated.
func DataFile(dataDir, custom, defaultName string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	if strings.TrimSpace(custom) == "" {
		return filepath.Join(dataDir, defaultName), nil
	}
	return ResolveWithin(dataDir, custom)
}

// ResolveWithin resolves userPath against baseDir and rejects results that
// land outside baseDir once symlinks are followed.
//
// Relative paths are joined to baseDir; absolute paths are checked as-is.
// The target file need not exist: the deepest existing ancestor is resolved
// and the missing components are appended back.
func ResolveWithin(baseDir, userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", fmt.Errorf("path is empty or whitespace-only")
	}
	if strings.ContainsRune(userPath, 0) {
		return "", fmt.Errorf("path contains null byte")
	}

	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}

	resolved, err := evalExisting(filepath.Clean(candidate))
	if err != nil {
		return "", err
	}
	base, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes data directory: %s", userPath)
	}
	return resolved, nil
}

// evalExisting follows symlinks in the longest existing prefix of path and
// re-appends the components that do not exist yet.
func evalExisting(path string) (string, error) {
	var missing []string
	current := path
	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", fmt.Errorf("failed to resolve symlinks: %w", err)
			}
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing parent directory for %s", path)
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
