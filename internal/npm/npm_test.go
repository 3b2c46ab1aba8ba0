package npm

import (
	"testing"
	"time"
)

func TestParsePublishTimes(t *testing.T) {
	raw := []byte(`{
		"created": "2023-09-01T10:00:00.000Z",
		"modified": "2023-10-05T09:30:00.000Z",
		"1.2.3-20231005-abc1234": "2023-10-05T09:30:00.000Z"
	}`)

	times, err := parsePublishTimes(raw)
	if err != nil {
		t.Fatalf("parsePublishTimes failed: %v", err)
	}

	want := time.Date(2023, 10, 5, 9, 30, 0, 0, time.UTC)
	got, ok := times["1.2.3-20231005-abc1234"]
	if !ok {
		t.Fatal("version key missing from parsed table")
	}
	if !got.Equal(want) {
		t.Errorf("publish time = %s, want %s", got, want)
	}
}

func TestParsePublishTimesRejectsErrorPayload(t *testing.T) {
	// npm emits an error object instead of a table for unknown packages.
	raw := []byte(`{"error": {"code": "E404", "summary": "Not Found"}}`)

	if _, err := parsePublishTimes(raw); err == nil {
		t.Fatal("expected an error for a non-table payload")
	}
}

func TestParsePublishTimesRejectsMalformedTimestamp(t *testing.T) {
	raw := []byte(`{"1.0.0": "yesterday"}`)

	if _, err := parsePublishTimes(raw); err == nil {
		t.Fatal("expected an error for a malformed timestamp")
	}
}
