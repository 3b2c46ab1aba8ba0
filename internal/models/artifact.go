package models

import (
	"encoding/json"
	"time"

	"backpub/internal/redirect"
)

// Commit identifies a resolved commit in the content repository.
type Commit struct {
	Hash       string
	Short      string
	AuthoredAt time.Time
}

// Artifact is the result of materializing one day's snapshot: the extracted
// inventory document plus the redirect source captured alongside it. An
// artifact lives for exactly one iteration of the publish loop.
type Artifact struct {
	Version   string
	Commit    Commit
	Inventory json.RawMessage

	rawRedirects string
	redirects    map[string]string
}

// NewArtifact builds an artifact around the extraction output. The redirect
// text is kept raw; parsing happens on first use since not all callers need
// the table.
func NewArtifact(version string, commit Commit, inventory []byte, rawRedirects string) *Artifact {
	return &Artifact{
		Version:      version,
		Commit:       commit,
		Inventory:    inventory,
		rawRedirects: rawRedirects,
	}
}

// Redirects returns the parsed redirect table, parsing lazily on first call.
func (a *Artifact) Redirects() map[string]string {
	if a.redirects == nil {
		a.redirects = redirect.Parse(a.rawRedirects)
	}
	return a.redirects
}

// DateStamp formats a day as the separator-free stamp embedded in published
// version identifiers, e.g. 20231005.
func DateStamp(day time.Time) string {
	return day.Format("20060102")
}
