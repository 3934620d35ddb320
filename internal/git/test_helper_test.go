package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// CreateSafeTempRepo creates an isolated repository with one committed file.
// GIT_CEILING_DIRECTORIES stops git from discovering any enclosing repository.
func CreateSafeTempRepo(t *testing.T) string {
	t.Helper()

	requireGit(t)

	parent := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", parent)
	dir := filepath.Join(parent, "aicommiter_git_test")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("Failed to create repo directory: %v", err)
	}

	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.name", "Test")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "commit.gpgsign", "false")

	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial commit")

	return dir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}
