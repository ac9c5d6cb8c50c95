package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ccmhq/ccm/runid"
)

func TestOpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sink.Close()

	var name string
	row := sink.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='runs'")
	if err := row.Scan(&name); err != nil {
		t.Fatalf("expected runs table to exist after migration: %v", err)
	}
}

func TestRecordRunAndRecordJobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sink.Close()

	id := runid.New()
	start := time.Now().UTC()
	if err := sink.RecordRun(id, start); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := sink.RecordJob(id, "app", OutcomeSucceeded, start, 250*time.Millisecond, 0); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}

	var count int
	if err := sink.db.QueryRow("SELECT COUNT(*) FROM job_runs WHERE run_id = ? AND target = ?", id.UUID.String(), "app").Scan(&count); err != nil {
		t.Fatalf("query job_runs: %v", err)
	}
	if count != 1 {
		t.Fatalf("job_runs rows = %d, want 1", count)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	sink.Close()

	sink2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open (re-applying migrations): %v", err)
	}
	defer sink2.Close()
}
