// Package backfill runs the day-by-day historic publish loop: build the
// day's snapshot, derive its identity, check the registry ledger for
// duplicates, then publish, skip, or abort.
package backfill

import (
	"fmt"
	"strings"
	"time"

	"backpub/internal/models"
)

// Decision is the outcome of one day's dedupe check.
type Decision int

const (
	DecisionPublish Decision = iota
	DecisionSkip
	DecisionAbort
)

func (d Decision) String() string {
	switch d {
	case DecisionPublish:
		return "publish"
	case DecisionSkip:
		return "skip"
	case DecisionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// DuplicateError reports that a day's snapshot already exists downstream and
// duplicate-skip mode is disabled.
type DuplicateError struct {
	Day     time.Time
	Stamp   string
	Short   string
	Version string
	Key     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already published: version %s matches candidate %s (date stamp %s, commit %s); re-run with --continue to skip past it",
		e.Day.Format("2006-01-02"), e.Key, e.Version, e.Stamp, e.Short)
}

// Driver walks one calendar day at a time from Start through the current
// day, building and publishing a snapshot per day. All collaborators are
// injected so the loop can be driven against fakes.
type Driver struct {
	Start    time.Time
	Continue bool
	DryRun   bool

	// Build materializes the day's snapshot. Any failure is fatal to the run.
	Build func(day time.Time) (*models.Artifact, error)
	// Ledger returns the published version set, re-fetched every day since
	// registry state can change between iterations.
	Ledger func() map[string]time.Time
	// Publish performs the registry write, or its dry-run rehearsal.
	Publish func(artifact *models.Artifact, dryRun bool) error
	// Teardown releases the day's artifact state. It runs after every day,
	// whatever the decision was.
	Teardown func() error

	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	Log *Logger
}

// Run processes every day from Start through the current day in ascending
// order. The first fatal condition stops the run; thanks to duplicate
// detection a re-invocation resumes idempotently.
func (d *Driver) Run() error {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	for day := d.Start; !day.After(now); day = day.AddDate(0, 0, 1) {
		if err := d.runDay(day); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) runDay(day time.Time) (err error) {
	date := day.Format("2006-01-02")
	d.Log.Printf("%s: building snapshot", date)

	artifact, buildErr := d.Build(day)
	if buildErr != nil {
		return fmt.Errorf("failed to build snapshot for %s: %w", date, buildErr)
	}

	defer func() {
		if terr := d.Teardown(); terr != nil && err == nil {
			err = fmt.Errorf("failed to tear down %s: %w", date, terr)
		}
	}()

	stamp := models.DateStamp(day)
	d.Log.Verbosef("%s: candidate %s (stamp %s, commit %s)", date, artifact.Version, stamp, artifact.Commit.Short)

	published := d.Ledger()
	key, matched := matchPublished(published, stamp, artifact.Commit.Short)

	switch decide(matched, d.Continue) {
	case DecisionSkip:
		d.Log.Printf("%s: already published as %s, skipping", date, key)
		return nil
	case DecisionAbort:
		return &DuplicateError{Day: day, Stamp: stamp, Short: artifact.Commit.Short, Version: artifact.Version, Key: key}
	}

	d.Log.Printf("%s: publishing %s (commit %s)", date, artifact.Version, artifact.Commit.Short)
	if perr := d.Publish(artifact, d.DryRun); perr != nil {
		return fmt.Errorf("failed to publish %s (%s): %w", artifact.Version, date, perr)
	}
	return nil
}

// decide maps a dedupe match onto the day's decision. Aborting is the
// default on a match; skipping requires the operator to opt in.
func decide(matched, skipDuplicates bool) Decision {
	switch {
	case !matched:
		return DecisionPublish
	case skipDuplicates:
		return DecisionSkip
	default:
		return DecisionAbort
	}
}

// matchPublished reports whether any published version key contains the
// candidate's date stamp or short hash as a substring. Raw containment can
// false-positive when a stamp or hash fragment coincides with unrelated
// version text; matching stays deliberately loose so a manual or
// differently-formatted historic publish still counts as the day's release.
func matchPublished(published map[string]time.Time, stamp, short string) (string, bool) {
	for key := range published {
		if strings.Contains(key, stamp) || (short != "" && strings.Contains(key, short)) {
			return key, true
		}
	}
	return "", false
}
