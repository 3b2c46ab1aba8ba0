// Package testutil builds throwaway git repositories for tests that exercise
// the real git command-line tool.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// TempGitRepo is a temporary git repository rooted at Path.
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates an initialized repository with a configured test
// user and the default branch named main. The repository starts empty; use
// CommitFileAt to add history.
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	tmpDir := t.TempDir()

	repo := &TempGitRepo{Path: tmpDir, T: t}
	repo.git("init", "--initial-branch=main")
	repo.git("config", "user.name", "Test User")
	repo.git("config", "user.email", "test@example.com")

	return repo
}

// CommitFileAt writes a file, commits it, and back-dates both the author and
// committer timestamps so date-bounded history queries see the given instant.
func (r *TempGitRepo) CommitFileAt(name, content, message string, at time.Time) string {
	r.T.Helper()

	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to write file: %v", err)
	}

	r.git("add", ".")

	stamp := at.UTC().Format(time.RFC3339)
	cmd := exec.Command("git", "commit", "-m", message, "--date="+stamp)
	cmd.Dir = r.Path
	cmd.Env = append(os.Environ(), "GIT_COMMITTER_DATE="+stamp)
	if output, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("failed to commit: %v\n%s", err, output)
	}

	return r.Head()
}

// Head returns the current commit hash.
func (r *TempGitRepo) Head() string {
	r.T.Helper()
	return r.output("rev-parse", "HEAD")
}

func (r *TempGitRepo) git(args ...string) {
	r.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	if output, err := cmd.CombinedOutput(); err != nil {
		r.T.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
}

func (r *TempGitRepo) output(args ...string) string {
	r.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	output, err := cmd.Output()
	if err != nil {
		r.T.Fatalf("git %v failed: %v", args, err)
	}
	return trim(string(output))
}

func trim(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
