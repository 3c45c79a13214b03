package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testRecord(command, cwd string) *Record {
	return &Record{
		Command:    command,
		OccurredAt: time.Now().UTC(),
		ExitCode:   0,
		DurationMS: 100,
		Cwd:        cwd,
		Category:   "other",
	}
}

func mustInsert(t *testing.T, s *Store, r *Record) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), r)
	if err != nil {
		t.Fatalf("insert %q: %v", r.Command, err)
	}
	return id
}

func TestInsertAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, s, testRecord("git status", "/home/user/project"))
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	r, err := s.Find(ctx, "git status", "/home/user/project")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if r.ID != id || r.Command != "git status" || r.UsageCount != 1 {
		t.Fatalf("unexpected record: %+v", r)
	}

	if _, err := s.Find(ctx, "git status", "/elsewhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other cwd, got %v", err)
	}
}

func TestInsertDuplicateKeyFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, testRecord("ls -la", "/tmp"))

	_, err := s.Insert(ctx, testRecord("ls -la", "/tmp"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same command in a different directory is a different record.
	mustInsert(t, s, testRecord("ls -la", "/var"))

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
}

func TestTouchIncrementsUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, s, testRecord("make build", "/src"))

	before, _ := s.Get(ctx, id)
	if err := s.Touch(ctx, id); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := s.Touch(ctx, id); err != nil {
		t.Fatalf("touch again: %v", err)
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.UsageCount != 3 {
		t.Fatalf("expected usage_count=3, got %d", after.UsageCount)
	}
	if after.LastUsedAt.Before(before.LastUsedAt) {
		t.Fatalf("last_used_at went backwards: %v -> %v", before.LastUsedAt, after.LastUsedAt)
	}
	if !after.OccurredAt.Equal(before.OccurredAt) {
		t.Fatalf("occurred_at changed on touch")
	}
}

func TestTouchMissingID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Touch(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := mustInsert(t, s, testRecord("cargo build", "/src"))
	if err := s.SetUsage(ctx, id, 10); err != nil {
		t.Fatalf("set usage: %v", err)
	}
	r, _ := s.Get(ctx, id)
	if r.UsageCount != 10 {
		t.Fatalf("expected usage_count=10, got %d", r.UsageCount)
	}

	// Clamped to >= 1.
	if err := s.SetUsage(ctx, id, 0); err != nil {
		t.Fatalf("set usage 0: %v", err)
	}
	r, _ = s.Get(ctx, id)
	if r.UsageCount != 1 {
		t.Fatalf("expected usage_count clamped to 1, got %d", r.UsageCount)
	}

	if err := s.SetUsage(ctx, 9999, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestForEachStreamsInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i, cmd := range []string{"first", "second", "third"} {
		r := testRecord(cmd, "/tmp")
		r.OccurredAt = base.Add(time.Duration(i) * time.Minute)
		mustInsert(t, s, r)
	}

	var got []string
	if err := s.ForEach(ctx, func(r Record) error {
		got = append(got, r.Command)
		return nil
	}); err != nil {
		t.Fatalf("foreach: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	// fn errors stop iteration and propagate.
	stop := errors.New("stop")
	count := 0
	err := s.ForEach(ctx, func(Record) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected iteration to stop after first record, got %d", count)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok := testRecord("git status", "/a")
	ok.Category = "git"
	mustInsert(t, s, ok)

	ok2 := testRecord("git log", "/a")
	ok2.Category = "git"
	mustInsert(t, s, ok2)

	fail := testRecord("ls /missing", "/a")
	fail.Category = "file"
	fail.ExitCode = 2
	mustInsert(t, s, fail)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCommands != 3 || stats.SuccessfulCommands != 2 || stats.FailedCommands != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if len(stats.ByCategory) != 2 || stats.ByCategory[0].Category != "git" || stats.ByCategory[0].Count != 2 {
		t.Fatalf("unexpected category breakdown: %+v", stats.ByCategory)
	}
	if stats.OldestCommand == nil || stats.NewestCommand == nil {
		t.Fatalf("expected oldest/newest timestamps")
	}
	if got := stats.SuccessRate(); got < 66.0 || got > 67.0 {
		t.Fatalf("expected success rate ~66.7, got %f", got)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCommands != 0 || stats.OldestCommand != nil {
		t.Fatalf("unexpected stats for empty store: %+v", stats)
	}
	if stats.SuccessRate() != 0 {
		t.Fatalf("expected 0 success rate on empty store")
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "deeper", "history.db"))
	if err != nil {
		t.Fatalf("open with missing parents: %v", err)
	}
	defer s.Close()

	if _, err := s.Count(context.Background()); err != nil {
		t.Fatalf("count on fresh store: %v", err)
	}
}
