// Package git drives the git command-line tool against a dedicated working
// copy. The working copy is an explicit handle (Repo) rather than ambient
// process state, so callers own its lifecycle: clone or reuse, fetch,
// checkout, reset, remove.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"backpub/internal/models"
)

// Repo is a handle to an on-disk working copy. It is not safe for use by
// more than one goroutine or process at a time.
type Repo struct {
	Dir string
}

// NoCommitError reports that a reference has no commit at or before the
// cutoff instant.
type NoCommitError struct {
	Reference string
	Cutoff    time.Time
}

func (e *NoCommitError) Error() string {
	return fmt.Sprintf("no commit on %s at or before %s", e.Reference, e.Cutoff.Format(time.RFC3339))
}

// EnsureClone returns a handle to a working copy of url at dir, cloning only
// when dir does not already hold a valid repository.
func EnsureClone(url, dir string) (*Repo, error) {
	repo := &Repo{Dir: dir}
	if repo.IsValid() {
		return repo, nil
	}
	cmd := exec.Command("git", "clone", url, dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %s: %w", url, strings.TrimSpace(string(output)), err)
	}
	return repo, nil
}

// IsValid reports whether the handle's directory is a git repository.
func (r *Repo) IsValid() bool {
	if _, err := os.Stat(r.Dir); err != nil {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = r.Dir
	return cmd.Run() == nil
}

// Fetch refreshes remote-tracking references and tags. Must run before
// resolving a date so the history is current.
func (r *Repo) Fetch() error {
	cmd := exec.Command("git", "fetch", "--all", "--tags")
	cmd.Dir = r.Dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to fetch: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// ResolveAtDate finds the last commit on reference at or before the end of
// the given historic day. The cutoff is start-of-day UTC plus one second, so
// a commit made exactly at midnight belongs to that day.
func (r *Repo) ResolveAtDate(reference string, day time.Time) (models.Commit, error) {
	day = day.UTC()
	cutoff := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 1, 0, time.UTC)

	cmd := exec.Command("git", "rev-list", "--max-count=1", "--before="+cutoff.Format(time.RFC3339), reference)
	cmd.Dir = r.Dir
	output, err := cmd.Output()
	if err != nil {
		return models.Commit{}, fmt.Errorf("failed to list history on %s: %w", reference, err)
	}

	hash := strings.TrimSpace(string(output))
	if hash == "" {
		return models.Commit{}, &NoCommitError{Reference: reference, Cutoff: cutoff}
	}

	short, err := r.ShortHash(hash)
	if err != nil {
		return models.Commit{}, err
	}
	authoredAt, err := r.AuthorTime(hash)
	if err != nil {
		return models.Commit{}, err
	}

	return models.Commit{Hash: hash, Short: short, AuthoredAt: authoredAt}, nil
}

// CheckoutDetached checks out a commit in detached state, discarding any
// local modifications.
func (r *Repo) CheckoutDetached(hash string) error {
	cmd := exec.Command("git", "checkout", "--force", "--detach", hash)
	cmd.Dir = r.Dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to checkout %s: %s: %w", hash, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// DiscardChanges drops build output and any other untracked or modified
// files, returning the working tree to the checked-out commit.
func (r *Repo) DiscardChanges() error {
	clean := exec.Command("git", "clean", "-fdx")
	clean.Dir = r.Dir
	if err := clean.Run(); err != nil {
		return fmt.Errorf("failed to remove untracked files: %w", err)
	}
	restore := exec.Command("git", "checkout", "--force", "--", ".")
	restore.Dir = r.Dir
	if err := restore.Run(); err != nil {
		return fmt.Errorf("failed to restore working tree: %w", err)
	}
	return nil
}

// ShortHash returns the abbreviated form of a commit hash.
func (r *Repo) ShortHash(hash string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--short", hash)
	cmd.Dir = r.Dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to abbreviate %s: %w", hash, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// AuthorTime returns the author timestamp of a commit.
func (r *Repo) AuthorTime(hash string) (time.Time, error) {
	cmd := exec.Command("git", "show", "--no-patch", "--format=%aI", hash)
	cmd.Dir = r.Dir
	output, err := cmd.Output()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read author time of %s: %w", hash, err)
	}
	authoredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(string(output)))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse author time of %s: %w", hash, err)
	}
	return authoredAt, nil
}

// Remove deletes the working copy from disk.
func (r *Repo) Remove() error {
	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("failed to remove working copy %s: %w", r.Dir, err)
	}
	return nil
}
