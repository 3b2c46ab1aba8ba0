// Package snapshot materializes one day's state of the content repository:
// it checks out the commit the Commit Resolver picks for that day, installs
// that commit's dependencies, runs the extraction script, and assembles the
// resulting inventory artifact.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backpub/internal/git"
	"backpub/internal/models"
	"backpub/internal/npm"
)

// Stage names the pipeline step a materialization failed in.
type Stage string

const (
	StageClone    Stage = "clone"
	StageCheckout Stage = "checkout"
	StageInstall  Stage = "install"
	StageExtract  Stage = "extract"
)

// MaterializeError reports which stage of a day's materialization failed.
// Output carries captured subprocess diagnostics when the stage produced any.
type MaterializeError struct {
	Stage  Stage
	Output string
	Err    error
}

func (e *MaterializeError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s stage failed: %v\n%s", e.Stage, e.Err, e.Output)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *MaterializeError) Unwrap() error { return e.Err }

// Seams for the npm subprocess calls, overridden in tests.
var (
	installDeps = npm.CleanInstall
	runExtract  = npm.RunExtract
)

// Materializer owns the working copy and turns (reference, day) pairs into
// inventory artifacts. It mutates its working directory and must not be
// shared across concurrent materializations.
type Materializer struct {
	RemoteURL string
	Reference string
	Workdir   string

	RedirectsFile   string
	BuildScript     string
	DescriptorFile  string
	MetadataFile    string
	MetadataHashKey string

	// Logf, when set, receives per-stage progress lines.
	Logf func(format string, args ...any)

	repo *git.Repo
}

// Materialize builds the inventory artifact for one historic day. Every
// stage failure is fatal to the day's attempt; no partial artifact is ever
// returned.
func (m *Materializer) Materialize(day time.Time) (*models.Artifact, error) {
	repo, err := git.EnsureClone(m.RemoteURL, m.Workdir)
	if err != nil {
		return nil, &MaterializeError{Stage: StageClone, Err: err}
	}
	m.repo = repo

	if err := repo.Fetch(); err != nil {
		return nil, &MaterializeError{Stage: StageCheckout, Err: err}
	}
	commit, err := repo.ResolveAtDate(m.Reference, day)
	if err != nil {
		return nil, &MaterializeError{Stage: StageCheckout, Err: err}
	}
	m.logf("  commit %s (%s, authored %s)", commit.Short, commit.Hash, commit.AuthoredAt.Format(time.RFC3339))
	if err := repo.CheckoutDetached(commit.Hash); err != nil {
		return nil, &MaterializeError{Stage: StageCheckout, Err: err}
	}

	// Captured before the build can touch the tree; parsed lazily later.
	rawRedirects, err := m.readRedirects()
	if err != nil {
		return nil, &MaterializeError{Stage: StageCheckout, Err: err}
	}

	m.logf("  installing dependencies")
	if err := installDeps(m.Workdir); err != nil {
		return nil, &MaterializeError{Stage: StageInstall, Err: err}
	}

	m.logf("  running extraction script %q", m.BuildScript)
	stdout, stderr, err := runExtract(m.Workdir, m.BuildScript, day)
	if err != nil {
		return nil, &MaterializeError{Stage: StageExtract, Output: strings.TrimSpace(string(stderr)), Err: err}
	}

	version, buildShort, err := m.readIdentity()
	if err != nil {
		return nil, &MaterializeError{Stage: StageExtract, Err: err}
	}
	if buildShort != "" {
		commit.Short = buildShort
	}

	return models.NewArtifact(version, commit, stdout, rawRedirects), nil
}

// Reset clears the day's artifact state from the working tree while keeping
// the clone for the next iteration.
func (m *Materializer) Reset() error {
	if m.repo == nil {
		return nil
	}
	return m.repo.DiscardChanges()
}

// CleanUp forcibly removes the working copy. It is never called implicitly;
// the owner decides when the clone is no longer worth keeping.
func (m *Materializer) CleanUp() error {
	if err := os.RemoveAll(m.Workdir); err != nil {
		return fmt.Errorf("failed to remove working copy %s: %w", m.Workdir, err)
	}
	m.repo = nil
	return nil
}

// readRedirects loads the redirect source file as raw text. A missing file
// is not an error: early history may predate redirects entirely.
func (m *Materializer) readRedirects() (string, error) {
	raw, err := os.ReadFile(filepath.Join(m.Workdir, m.RedirectsFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read redirect source %s: %w", m.RedirectsFile, err)
	}
	return string(raw), nil
}

// readIdentity reads the build-output identity files: the semantic version
// from the package descriptor and the short commit hash from the build
// metadata file.
func (m *Materializer) readIdentity() (version, short string, err error) {
	version, err = readDescriptorVersion(filepath.Join(m.Workdir, m.DescriptorFile))
	if err != nil {
		return "", "", err
	}
	short, err = readMetadataHash(filepath.Join(m.Workdir, m.MetadataFile), m.MetadataHashKey)
	if err != nil {
		return "", "", err
	}
	return version, short, nil
}

func (m *Materializer) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}
