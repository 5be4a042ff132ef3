package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sandboxRoot(t *testing.T) string {
	t.Helper()
	// Resolve the temp dir itself so macOS /var -> /private/var symlinks do
	// not interfere with prefix checks.
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("cannot resolve temp dir: %v", err)
	}
	return root
}

func TestValidatePathAcceptsRootItself(t *testing.T) {
	root := sandboxRoot(t)
	resolved, err := ValidatePath(".", root)
	if err != nil {
		t.Fatalf("expected root to validate, got %v", err)
	}
	if resolved != root {
		t.Fatalf("expected %q, got %q", root, resolved)
	}
}

func TestValidatePathAcceptsNestedExisting(t *testing.T) {
	root := sandboxRoot(t)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := ValidatePath("a/b", root); err != nil {
		t.Fatalf("expected nested path to validate, got %v", err)
	}
}

func TestValidatePathAcceptsNotYetExisting(t *testing.T) {
	root := sandboxRoot(t)
	resolved, err := ValidatePath("new/dir/file.txt", root)
	if err != nil {
		t.Fatalf("expected not-yet-existing path to validate, got %v", err)
	}
	if !strings.HasPrefix(resolved, root) {
		t.Fatalf("resolved path %q escaped root %q", resolved, root)
	}
}

func TestValidatePathRejectsTraversal(t *testing.T) {
	root := sandboxRoot(t)
	if _, err := ValidatePath("../x", root); err == nil {
		t.Fatal("expected ../x to be rejected")
	} else if !strings.Contains(err.Error(), "Access denied") {
		t.Fatalf("expected Access denied error, got %v", err)
	}
}

func TestValidatePathRejectsDeepTraversal(t *testing.T) {
	root := sandboxRoot(t)
	if _, err := ValidatePath("a/../../etc/passwd", root); err == nil {
		t.Fatal("expected traversal through a subdirectory to be rejected")
	}
}

func TestValidatePathRejectsAbsoluteOutside(t *testing.T) {
	root := sandboxRoot(t)
	if _, err := ValidatePath("/etc/passwd", root); err == nil {
		t.Fatal("expected absolute outside path to be rejected")
	}
}

func TestValidatePathAcceptsAbsoluteInside(t *testing.T) {
	root := sandboxRoot(t)
	inside := filepath.Join(root, "file.txt")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ValidatePath(inside, root); err != nil {
		t.Fatalf("expected absolute inside path to validate, got %v", err)
	}
}

func TestValidatePathRejectsSymlinkEscape(t *testing.T) {
	root := sandboxRoot(t)
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	link := filepath.Join(root, "leak")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := ValidatePath("leak", root); err == nil {
		t.Fatal("expected symlink escape to be rejected")
	}
}

func TestValidatePathRejectsSymlinkedDirEscape(t *testing.T) {
	root := sandboxRoot(t)
	outside := t.TempDir()

	link := filepath.Join(root, "logs")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := ValidatePath(filepath.Join("logs", "app.log"), root); err == nil {
		t.Fatal("expected escape through a symlinked directory to be rejected")
	}
}

func TestValidatePathRejectsDanglingSymlinkOutside(t *testing.T) {
	root := sandboxRoot(t)
	link := filepath.Join(root, "dangling")
	if err := os.Symlink("/nonexistent/outside/target", link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := ValidatePath("dangling", root); err == nil {
		t.Fatal("expected dangling symlink pointing outside to be rejected")
	}
}

func TestValidatePathAcceptsDanglingSymlinkInside(t *testing.T) {
	root := sandboxRoot(t)
	link := filepath.Join(root, "future")
	if err := os.Symlink(filepath.Join(root, "not-yet-created.txt"), link); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := ValidatePath("future", root); err != nil {
		t.Fatalf("expected dangling symlink inside the root to validate, got %v", err)
	}
}

func TestValidatePathRejectsEmpty(t *testing.T) {
	root := sandboxRoot(t)
	if _, err := ValidatePath("  ", root); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}

// fakeFS exercises the validation logic without touching the disk.
type fakeFS struct {
	// real maps an existing path to its symlink-free form.
	real map[string]string
	// links maps a symlink path to its target.
	links map[string]string
}

type fakeFileInfo struct {
	name string
	mode os.FileMode
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return f.mode }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeFileInfo) Sys() any           { return nil }

func (f fakeFS) EvalSymlinks(path string) (string, error) {
	if real, ok := f.real[path]; ok {
		return real, nil
	}
	return "", fmt.Errorf("lstat %s: no such file or directory", path)
}

func (f fakeFS) Lstat(path string) (os.FileInfo, error) {
	if _, ok := f.links[path]; ok {
		return fakeFileInfo{name: filepath.Base(path), mode: os.ModeSymlink}, nil
	}
	if _, ok := f.real[path]; ok {
		return fakeFileInfo{name: filepath.Base(path), mode: os.ModeDir}, nil
	}
	return nil, fmt.Errorf("lstat %s: no such file or directory", path)
}

func (f fakeFS) Readlink(path string) (string, error) {
	if target, ok := f.links[path]; ok {
		return target, nil
	}
	return "", fmt.Errorf("readlink %s: invalid argument", path)
}

func TestValidatePathPureOracle(t *testing.T) {
	fs := fakeFS{
		real: map[string]string{
			"/proj":       "/proj",
			"/proj/src":   "/proj/src",
			"/etc":        "/etc",
			"/etc/passwd": "/etc/passwd",
			"/proj/evil":  "/etc", // symlinked dir resolving outside
		},
		links: map[string]string{
			"/proj/dangle-out": "/etc/shadow",
			"/proj/dangle-in":  "/proj/pending.txt",
		},
	}

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"root itself", ".", false},
		{"existing nested dir", "src", false},
		{"not yet existing file", "src/main.go", false},
		{"not yet existing tree", "deep/new/tree.txt", false},
		{"parent traversal", "../etc/passwd", true},
		{"absolute outside", "/etc/passwd", true},
		{"symlinked dir outside", "evil", true},
		{"file under symlinked dir", "evil/passwd", true},
		{"dangling link outside", "dangle-out", true},
		{"dangling link inside", "dangle-in", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validatePath(fs, tc.path, "/proj")
			if tc.wantErr && err == nil {
				t.Fatalf("expected %q to be rejected", tc.path)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected %q to validate, got %v", tc.path, err)
			}
		})
	}
}
