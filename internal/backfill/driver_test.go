package backfill

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"backpub/internal/models"
)

// harness wires a Driver to recording fakes.
type harness struct {
	driver *Driver

	built       []time.Time
	published   []string
	dryRuns     []bool
	ledgerCalls int
	teardowns   int

	buildErr   error
	buildErrOn string // date that should fail, "" for never
	ledger     map[string]time.Time
	out        bytes.Buffer
}

func newHarness(start, now time.Time) *harness {
	h := &harness{ledger: map[string]time.Time{}}
	h.driver = &Driver{
		Start: start,
		Build: func(day time.Time) (*models.Artifact, error) {
			if h.buildErr != nil && day.Format("2006-01-02") == h.buildErrOn {
				return nil, h.buildErr
			}
			h.built = append(h.built, day)
			commit := models.Commit{
				Hash:       "feedface0000",
				Short:      "feedfac",
				AuthoredAt: day.Add(-2 * time.Hour),
			}
			return models.NewArtifact("1.2.3", commit, []byte(`{}`), ""), nil
		},
		Ledger: func() map[string]time.Time {
			h.ledgerCalls++
			return h.ledger
		},
		Publish: func(artifact *models.Artifact, dryRun bool) error {
			h.published = append(h.published, artifact.Version)
			h.dryRuns = append(h.dryRuns, dryRun)
			return nil
		},
		Teardown: func() error {
			h.teardowns++
			return nil
		},
		Now: func() time.Time { return now },
		Log: &Logger{Out: &h.out, Err: &h.out},
	}
	return h
}

func day(d int) time.Time {
	return time.Date(2023, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestRunProcessesEveryDayThroughNow(t *testing.T) {
	h := newHarness(day(1), time.Date(2023, 10, 3, 0, 0, 0, 0, time.UTC))
	h.driver.DryRun = true

	if err := h.driver.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(h.built) != 3 {
		t.Fatalf("built %d days, want 3", len(h.built))
	}
	for i, want := range []time.Time{day(1), day(2), day(3)} {
		if !h.built[i].Equal(want) {
			t.Errorf("day %d built for %s, want %s", i, h.built[i], want)
		}
	}
	if len(h.published) != 3 {
		t.Errorf("published %d times, want 3", len(h.published))
	}
	for i, dry := range h.dryRuns {
		if !dry {
			t.Errorf("publish %d ran without the dry-run flag", i)
		}
	}
	if h.teardowns != 3 {
		t.Errorf("teardowns = %d, want 3", h.teardowns)
	}
	if h.ledgerCalls != 3 {
		t.Errorf("ledger fetched %d times, want once per day", h.ledgerCalls)
	}
}

func TestRunAbortsOnDuplicateByDefault(t *testing.T) {
	h := newHarness(day(1), time.Date(2023, 10, 3, 0, 0, 0, 0, time.UTC))
	h.ledger["4.5.6-20231002-0badf00"] = time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC)

	err := h.driver.Run()
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if !dup.Day.Equal(day(2)) {
		t.Errorf("aborted on %s, want 2023-10-02", dup.Day)
	}
	if dup.Key != "4.5.6-20231002-0badf00" {
		t.Errorf("conflicting key = %q", dup.Key)
	}

	// October 1 went through; October 3 was never reached.
	if len(h.published) != 1 {
		t.Errorf("published %d times, want 1", len(h.published))
	}
	if len(h.built) != 2 {
		t.Errorf("built %d days, want 2", len(h.built))
	}
	// Teardown still ran for the aborted day.
	if h.teardowns != 2 {
		t.Errorf("teardowns = %d, want 2", h.teardowns)
	}
}

func TestRunSkipsDuplicateWithContinue(t *testing.T) {
	h := newHarness(day(1), time.Date(2023, 10, 3, 0, 0, 0, 0, time.UTC))
	h.driver.Continue = true
	h.ledger["4.5.6-20231002-0badf00"] = time.Date(2023, 10, 2, 9, 0, 0, 0, time.UTC)

	if err := h.driver.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(h.built) != 3 {
		t.Errorf("built %d days, want all 3", len(h.built))
	}
	if len(h.published) != 2 {
		t.Errorf("published %d times, want 2 (October 2 skipped)", len(h.published))
	}
	if h.teardowns != 3 {
		t.Errorf("teardowns = %d, want 3", h.teardowns)
	}
}

func TestRunStopsOnBuildFailure(t *testing.T) {
	h := newHarness(day(1), time.Date(2023, 10, 3, 0, 0, 0, 0, time.UTC))
	h.buildErr = errors.New("extraction exploded")
	h.buildErrOn = "2023-10-02"

	err := h.driver.Run()
	if err == nil || !errors.Is(err, h.buildErr) {
		t.Fatalf("expected the build error to surface, got %v", err)
	}
	if len(h.published) != 1 {
		t.Errorf("published %d times, want only October 1", len(h.published))
	}
}

func TestRunDoesNothingWhenStartIsInTheFuture(t *testing.T) {
	h := newHarness(day(3), time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC))

	if err := h.driver.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(h.built) != 0 {
		t.Errorf("built %d days, want 0", len(h.built))
	}
}

func TestDryRunAndRealRunLogIdentically(t *testing.T) {
	now := time.Date(2023, 10, 3, 0, 0, 0, 0, time.UTC)

	dry := newHarness(day(1), now)
	dry.driver.DryRun = true
	if err := dry.driver.Run(); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	real := newHarness(day(1), now)
	if err := real.driver.Run(); err != nil {
		t.Fatalf("real run failed: %v", err)
	}

	if dry.out.String() != real.out.String() {
		t.Errorf("decision output differs between modes:\ndry:\n%s\nreal:\n%s", dry.out.String(), real.out.String())
	}
	for _, dryFlag := range real.dryRuns {
		if dryFlag {
			t.Error("real run passed the dry-run flag to publish")
		}
	}
}

func TestMatchPublished(t *testing.T) {
	published := map[string]time.Time{
		"1.2.3-20231005-abc1234": {},
	}

	tests := []struct {
		name  string
		stamp string
		short string
		want  bool
	}{
		{"date stamp matches", "20231005", "fffffff", true},
		{"short hash matches", "20231006", "abc1234", true},
		{"neither matches", "20231006", "fffffff", false},
		{"empty short hash never matches", "20231006", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, matched := matchPublished(published, tt.stamp, tt.short)
			if matched != tt.want {
				t.Errorf("matched = %v, want %v", matched, tt.want)
			}
			if matched && key != "1.2.3-20231005-abc1234" {
				t.Errorf("matched key = %q", key)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		matched        bool
		skipDuplicates bool
		want           Decision
	}{
		{false, false, DecisionPublish},
		{false, true, DecisionPublish},
		{true, false, DecisionAbort},
		{true, true, DecisionSkip},
	}

	for _, tt := range tests {
		if got := decide(tt.matched, tt.skipDuplicates); got != tt.want {
			t.Errorf("decide(%v, %v) = %s, want %s", tt.matched, tt.skipDuplicates, got, tt.want)
		}
	}
}

func TestTeardownFailureSurfaces(t *testing.T) {
	h := newHarness(day(1), day(1))
	tearErr := errors.New("working copy locked")
	h.driver.Teardown = func() error { return tearErr }

	err := h.driver.Run()
	if err == nil || !errors.Is(err, tearErr) {
		t.Fatalf("expected the teardown error to surface, got %v", err)
	}
}
