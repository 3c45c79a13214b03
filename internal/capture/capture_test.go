package capture

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/daneb/omniscient/internal/category"
	"github.com/daneb/omniscient/internal/redact"
	"github.com/daneb/omniscient/internal/store"
)

func newTestRecorder(t *testing.T, minDurationMS int64) (*Recorder, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return NewRecorder(s, redact.Default(), category.New(), minDurationMS), s
}

func testRecord(command, cwd string) *store.Record {
	now := time.Now().UTC()
	return &store.Record{
		Command:    command,
		OccurredAt: now,
		DurationMS: 100,
		Cwd:        cwd,
		Category:   "other",
		UsageCount: 1,
		LastUsedAt: now,
	}
}

func TestCaptureStoresCommand(t *testing.T) {
	r, s := newTestRecorder(t, 0)
	ctx := context.Background()

	stored, err := r.Capture(ctx, "git status", 0, 45)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !stored {
		t.Fatal("capture reported not stored")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}

	recent, err := s.Recent(ctx, 10, "", false)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if recent[0].Category != "git" {
		t.Fatalf("expected category git, got %q", recent[0].Category)
	}
}

func TestCaptureDeduplicates(t *testing.T) {
	r, s := newTestRecorder(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Capture(ctx, "git status", 0, 45); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Fatalf("expected a single record, got %d", n)
	}
	recent, _ := s.Recent(ctx, 10, "", false)
	if recent[0].UsageCount != 3 {
		t.Fatalf("expected usage_count=3, got %d", recent[0].UsageCount)
	}
}

func TestCaptureSkipsEmptyAndFast(t *testing.T) {
	r, s := newTestRecorder(t, 100)
	ctx := context.Background()

	for _, cmd := range []string{"", "   ", "fast command"} {
		stored, err := r.Capture(ctx, cmd, 0, 50)
		if err != nil {
			t.Fatalf("capture %q: %v", cmd, err)
		}
		if stored {
			t.Errorf("capture %q stored, want skipped", cmd)
		}
	}
	stored, err := r.Capture(ctx, "slow command", 0, 200)
	if err != nil {
		t.Fatalf("capture slow: %v", err)
	}
	if !stored {
		t.Fatal("slow command skipped, want stored")
	}

	recent, err := s.Recent(ctx, 10, "", false)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Command != "slow command" {
		t.Fatalf("expected only the slow command, got %+v", recent)
	}
}

func TestCaptureDropsRedacted(t *testing.T) {
	r, s := newTestRecorder(t, 0)
	ctx := context.Background()

	stored, err := r.Capture(ctx, "export PASSWORD=secret", 0, 10)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if stored {
		t.Fatal("redacted command reported stored")
	}

	n, _ := s.Count(ctx)
	if n != 0 {
		t.Fatalf("redacted command must not be stored, got %d records", n)
	}
}

func TestCaptureKeepsFirstOccurrenceMetadata(t *testing.T) {
	r, s := newTestRecorder(t, 0)
	ctx := context.Background()

	first := testRecord("make test", "/src")
	first.ExitCode = 0
	if err := r.Record(ctx, first); err != nil {
		t.Fatalf("record first: %v", err)
	}

	// A repeat with different metadata only bumps usage accounting.
	repeat := testRecord("make test", "/src")
	repeat.ExitCode = 2
	repeat.DurationMS = 9999
	repeat.Category = "build"
	if err := r.Record(ctx, repeat); err != nil {
		t.Fatalf("record repeat: %v", err)
	}

	stored, err := s.Find(ctx, "make test", "/src")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.UsageCount != 2 {
		t.Fatalf("expected usage_count=2, got %d", stored.UsageCount)
	}
	if stored.ExitCode != 0 || stored.DurationMS != 100 || stored.Category != "other" {
		t.Fatalf("repeat must not overwrite first-occurrence fields: %+v", stored)
	}
}

func TestRecordConcurrentSameKey(t *testing.T) {
	r, s := newTestRecorder(t, 0)
	ctx := context.Background()

	// Two near-simultaneous captures of the same key: whoever loses the
	// insert race must recover via touch, never duplicate.
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- r.Record(ctx, testRecord("git pull", "/repo"))
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Fatalf("expected exactly one record after concurrent captures, got %d", n)
	}
	stored, _ := s.Find(ctx, "git pull", "/repo")
	if stored.UsageCount != 2 {
		t.Fatalf("expected usage_count=2, got %d", stored.UsageCount)
	}
}
