package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// pathFS is the filesystem oracle the sandbox validation runs against. The
// indirection keeps the escape-prevention logic unit-testable without a real
// filesystem; production code uses osFS.
type pathFS interface {
	// EvalSymlinks returns the symlink-free form of path, or an error when
	// path (or a component of it) does not exist.
	EvalSymlinks(path string) (string, error)

	// Lstat stats path without following a trailing symlink.
	Lstat(path string) (os.FileInfo, error)

	// Readlink returns the target of the symlink at path.
	Readlink(path string) (string, error)
}

type osFS struct{}

func (osFS) EvalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
func (osFS) Lstat(path string) (os.FileInfo, error)   { return os.Lstat(path) }
func (osFS) Readlink(path string) (string, error)     { return os.Readlink(path) }

// maxLinkDepth bounds symlink-chain traversal during validation.
const maxLinkDepth = 16

// ValidatePath resolves relPath against workingDir and verifies the result
// stays inside workingDir, following symlinks. It returns the absolute
// candidate path. Non-existent targets are accepted as long as their nearest
// existing ancestor (or, for a dangling symlink, the link target) resolves
// inside the root, so files that are about to be created validate cleanly.
func ValidatePath(relPath, workingDir string) (string, error) {
	return validatePath(osFS{}, relPath, workingDir)
}

func validatePath(fs pathFS, relPath, workingDir string) (string, error) {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	candidate := trimmed
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workingDir, candidate)
	}
	candidate = filepath.Clean(candidate)

	realRoot, err := fs.EvalSymlinks(workingDir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve working directory %s: %w", workingDir, err)
	}

	if err := checkCandidate(fs, candidate, realRoot, relPath, 0); err != nil {
		return "", err
	}
	return candidate, nil
}

func checkCandidate(fs pathFS, candidate, realRoot, original string, depth int) error {
	if depth > maxLinkDepth {
		return accessDenied(original)
	}

	if real, err := fs.EvalSymlinks(candidate); err == nil {
		if !pathWithin(realRoot, real) {
			return accessDenied(original)
		}
		return nil
	}

	// The candidate does not fully exist. A dangling symlink still counts as
	// an escape vector when its target points outside the root.
	if info, err := fs.Lstat(candidate); err == nil && info.Mode()&os.ModeSymlink != 0 {
		target, err := fs.Readlink(candidate)
		if err != nil {
			return accessDenied(original)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(candidate), target)
		}
		return checkCandidate(fs, filepath.Clean(target), realRoot, original, depth+1)
	}

	// Plain non-existent path: validate the nearest existing ancestor. The
	// candidate itself cannot introduce an escape because nothing exists at
	// or below it yet.
	dir := filepath.Dir(candidate)
	for {
		if realDir, err := fs.EvalSymlinks(dir); err == nil {
			if !pathWithin(realRoot, realDir) {
				return accessDenied(original)
			}
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return accessDenied(original)
		}
		dir = parent
	}
}

// pathWithin reports whether target equals root or is nested under it.
func pathWithin(root, target string) bool {
	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}

func accessDenied(path string) error {
	return fmt.Errorf("Access denied: path %q is outside the working directory", path)
}
