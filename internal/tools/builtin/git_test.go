package builtin

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a git repository with one committed file and returns its
// root.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := sandboxRoot(t)
	ctx := context.Background()

	mustGit := func(args ...string) {
		t.Helper()
		if out, err := runGit(ctx, root, args...); err != nil {
			t.Fatalf("git %v failed: %v (%s)", args, err, out)
		}
	}

	mustGit("init")
	mustGit("config", "user.email", "test@example.com")
	mustGit("config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustGit("add", "README.md")
	mustGit("commit", "-m", "initial")
	return root
}

func TestGitStatusCleanAndDirty(t *testing.T) {
	root := initRepo(t)
	taskCtx := taskContext(root)

	result, err := NewGitStatus().Execute(context.Background(), map[string]any{}, taskCtx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(result, "##") {
		t.Fatalf("expected branch header in short status, got %q", result)
	}

	if err := os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err = NewGitStatus().Execute(context.Background(), map[string]any{}, taskCtx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(result, "new.txt") {
		t.Fatalf("expected untracked file in status, got %q", result)
	}
}

func TestGitDiffUnstagedAndStaged(t *testing.T) {
	root := initRepo(t)
	taskCtx := taskContext(root)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("# changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := NewGitDiff().Execute(ctx, map[string]any{}, taskCtx)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !strings.Contains(result, "changed") {
		t.Fatalf("expected unstaged change in diff, got %q", result)
	}

	// Nothing staged yet.
	result, err = NewGitDiff().Execute(ctx, map[string]any{"staged": true}, taskCtx)
	if err != nil {
		t.Fatalf("staged diff failed: %v", err)
	}
	if result != "No changes" {
		t.Fatalf("expected no staged changes, got %q", result)
	}

	if _, err := runGit(ctx, root, "add", "README.md"); err != nil {
		t.Fatal(err)
	}
	result, err = NewGitDiff().Execute(ctx, map[string]any{"staged": true}, taskCtx)
	if err != nil {
		t.Fatalf("staged diff failed: %v", err)
	}
	if !strings.Contains(result, "changed") {
		t.Fatalf("expected staged change in diff, got %q", result)
	}
}

func TestGitDiffPathValidated(t *testing.T) {
	root := initRepo(t)
	_, err := NewGitDiff().Execute(context.Background(), map[string]any{"path": "../outside"}, taskContext(root))
	if err == nil {
		t.Fatal("expected path outside the sandbox to be rejected")
	}
	if !strings.Contains(err.Error(), "Access denied") {
		t.Fatalf("expected Access denied, got %v", err)
	}
}

func TestGitCommitNothingStaged(t *testing.T) {
	root := initRepo(t)

	result, err := NewGitCommit().Execute(context.Background(), map[string]any{"message": "x"}, taskContext(root))
	if err != nil {
		t.Fatalf("expected textual failure, got error %v", err)
	}
	if !strings.Contains(result, "Commit failed") {
		t.Fatalf("expected commit failure text, got %q", result)
	}
}

func TestGitCommitStagesListedFiles(t *testing.T) {
	root := initRepo(t)
	if err := os.WriteFile(filepath.Join(root, "feature.txt"), []byte("new feature\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := NewGitCommit().Execute(context.Background(), map[string]any{
		"message": "add feature",
		"files":   []any{"feature.txt"},
	}, taskContext(root))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if !strings.Contains(result, "add feature") {
		t.Fatalf("expected commit confirmation, got %q", result)
	}

	log, err := runGit(context.Background(), root, "log", "--oneline")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(log, "add feature") {
		t.Fatalf("expected commit in log, got %q", log)
	}
}

func TestGitCommitFileOutsideSandbox(t *testing.T) {
	root := initRepo(t)
	_, err := NewGitCommit().Execute(context.Background(), map[string]any{
		"message": "x",
		"files":   []any{"../outside.txt"},
	}, taskContext(root))
	if err == nil {
		t.Fatal("expected file outside the sandbox to be rejected")
	}
}
