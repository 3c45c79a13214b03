package store

import (
	"context"
	"testing"
	"time"
)

func TestSanitizeFTS(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"hello world", `"hello world"`},
		{"10.104.113.39", `"10.104.113.39"`},
		{"ls *.txt", `"ls *.txt"`},
		{"https://example.com", `"https://example.com"`},
		{`grep "pattern"`, `"grep ""pattern"""`},
	}
	for _, c := range cases {
		if got := sanitizeFTS(c.in); got != c.want {
			t.Errorf("sanitizeFTS(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Terms full of FTS5 operator characters must match via the literal phrase
// path without ever surfacing a syntax error.
func TestSearchSpecialCharacters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	commands := []string{
		"ssh user@10.104.113.39",
		"curl https://api.github.com/users/daneb",
		"cat ./config/settings.yaml",
		"scp file.txt user@host.com:/path/to/dest",
		`grep "a b" notes.txt`,
		"find . -name a*b",
	}
	for _, cmd := range commands {
		mustInsert(t, s, testRecord(cmd, "/tmp"))
	}

	terms := []string{
		"10.104.113.39",
		"api.github.com",
		"./config/settings.yaml",
		"user@host.com",
		`"a b"`,
		"a*b",
	}
	for _, term := range terms {
		results, err := s.Query(ctx, Query{Term: term, Order: OrderRelevance, Limit: 10})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}
		if len(results) == 0 {
			t.Fatalf("search %q: expected a match, got none", term)
		}
	}
}

func TestSearchFiltersApply(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testRecord("git push origin main", "/proj")
	g.Category = "git"
	mustInsert(t, s, g)

	d := testRecord("docker push registry/image", "/proj")
	d.Category = "docker"
	mustInsert(t, s, d)

	f := testRecord("git push --force", "/proj")
	f.Category = "git"
	f.ExitCode = 1
	mustInsert(t, s, f)

	results, err := s.Query(ctx, Query{Term: "push", Category: "git", Limit: 10})
	if err != nil {
		t.Fatalf("search with category: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 git results, got %d", len(results))
	}

	yes := true
	results, err = s.Query(ctx, Query{Term: "push", Category: "git", Success: &yes, Limit: 10})
	if err != nil {
		t.Fatalf("search success-only: %v", err)
	}
	if len(results) != 1 || results[0].Command != "git push origin main" {
		t.Fatalf("expected only the successful git push, got %+v", results)
	}

	no := false
	results, err = s.Query(ctx, Query{Term: "push", Success: &no, Limit: 10})
	if err != nil {
		t.Fatalf("search failures-only: %v", err)
	}
	if len(results) != 1 || results[0].Command != "git push --force" {
		t.Fatalf("expected only the failed push, got %+v", results)
	}
}

// The fallback scan must return the same matches as the primary path under
// identical filters.
func TestFallbackScanEquivalence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, testRecord("kubectl get pods -n staging", "/infra"))
	mustInsert(t, s, testRecord("kubectl get svc", "/infra"))
	mustInsert(t, s, testRecord("echo done", "/infra"))

	q := Query{Term: "kubectl get", Dir: "/infra", Limit: 10, Order: OrderRelevance}

	primary, err := s.searchFTS(ctx, q)
	if err != nil {
		t.Fatalf("fts path: %v", err)
	}
	fallback, err := s.searchScan(ctx, q)
	if err != nil {
		t.Fatalf("scan path: %v", err)
	}
	if len(primary) != 2 || len(fallback) != 2 {
		t.Fatalf("expected both paths to find 2 records, got fts=%d scan=%d",
			len(primary), len(fallback))
	}

	want := map[string]bool{"kubectl get pods -n staging": true, "kubectl get svc": true}
	for _, c := range fallback {
		if !want[c.rec.Command] {
			t.Fatalf("fallback returned unexpected record %q", c.rec.Command)
		}
		if c.rank != 0 {
			t.Fatalf("fallback candidates carry no native rank, got %f", c.rank)
		}
	}
}

// The fallback substring scan is case-sensitive by design.
func TestFallbackScanCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, testRecord("Make DESTDIR=/opt install", "/src"))

	hits, err := s.searchScan(ctx, Query{Term: "DESTDIR", Limit: 10})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit for exact case, got %d", len(hits))
	}

	miss, err := s.searchScan(ctx, Query{Term: "destdir", Limit: 10})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(miss) != 0 {
		t.Fatalf("expected no hits for wrong case, got %d", len(miss))
	}
}

func TestRelevanceRanksRepeatsAboveSingles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	status := testRecord("git status", "/a")
	id := mustInsert(t, s, status)
	if err := s.Touch(ctx, id); err != nil {
		t.Fatalf("touch: %v", err)
	}
	mustInsert(t, s, testRecord("git log", "/a"))

	results, err := s.Query(ctx, Query{Term: "git", Order: OrderRelevance, Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Command != "git status" {
		t.Fatalf("expected twice-used 'git status' ranked first, got %q", results[0].Command)
	}
	if results[0].UsageCount != 2 {
		t.Fatalf("expected usage_count=2 on top result, got %d", results[0].UsageCount)
	}
}

func TestRelevanceScoreSignals(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fresh := candidate{rec: Record{Command: "git status", UsageCount: 1, LastUsedAt: now}}

	// Substring bonus dominates a non-matching candidate.
	withMatch := relevanceScore(fresh, "git", now)
	withoutMatch := relevanceScore(fresh, "svn", now)
	if withMatch-withoutMatch < 9.9 {
		t.Fatalf("expected ~10 point substring bonus, got %f", withMatch-withoutMatch)
	}

	// Frequency signal is sub-linear.
	heavy := fresh
	heavy.rec.UsageCount = 1000
	gain := relevanceScore(heavy, "git", now) - withMatch
	if gain <= 0 || gain > 8 {
		t.Fatalf("expected modest log-scale frequency gain, got %f", gain)
	}

	// A 30-day-old record loses half its recency signal.
	stale := fresh
	stale.rec.LastUsedAt = now.Add(-30 * 24 * time.Hour)
	decay := withMatch - relevanceScore(stale, "git", now)
	if decay < 0.45 || decay > 0.55 {
		t.Fatalf("expected ~0.5 recency decay at 30 days, got %f", decay)
	}
}

func TestPathScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, testRecord("ls", "/foo"))
	mustInsert(t, s, testRecord("pwd", "/foo/sub"))
	mustInsert(t, s, testRecord("whoami", "/foobar"))
	mustInsert(t, s, testRecord("date", "/other"))

	exact, err := s.Query(ctx, Query{Dir: "/foo", Limit: 10})
	if err != nil {
		t.Fatalf("exact query: %v", err)
	}
	if len(exact) != 1 || exact[0].Cwd != "/foo" {
		t.Fatalf("exact mode: expected only /foo, got %+v", exact)
	}

	recursive, err := s.Query(ctx, Query{Dir: "/foo", Recursive: true, Limit: 10})
	if err != nil {
		t.Fatalf("recursive query: %v", err)
	}
	// Literal prefix match: /foo, /foo/sub, and the sibling /foobar all match.
	if len(recursive) != 3 {
		t.Fatalf("recursive mode: expected 3 records, got %d", len(recursive))
	}
	for _, r := range recursive {
		if r.Cwd == "/other" {
			t.Fatalf("recursive mode matched unrelated directory %q", r.Cwd)
		}
	}
}

func TestPathFilterLiteralPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsert(t, s, testRecord("ls", "/data/100%"))
	mustInsert(t, s, testRecord("pwd", "/data/100x"))

	// LIKE metacharacters in the caller's path must not act as wildcards.
	results, err := s.Query(ctx, Query{Dir: "/data/100%", Recursive: true, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 || results[0].Cwd != "/data/100%" {
		t.Fatalf("expected literal prefix match only, got %+v", results)
	}
}

func TestOrderings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testRecord("old command", "/a")
	old.OccurredAt = time.Now().UTC().Add(-time.Hour)
	old.LastUsedAt = old.OccurredAt
	oldID := mustInsert(t, s, old)

	mustInsert(t, s, testRecord("new command", "/a"))

	// Touching bumps usage and recency for the older record.
	if err := s.Touch(ctx, oldID); err != nil {
		t.Fatalf("touch: %v", err)
	}

	recent, err := s.Recent(ctx, 10, "", false)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if recent[0].Command != "old command" {
		t.Fatalf("recency order: expected most recently used first, got %q", recent[0].Command)
	}

	top, err := s.Top(ctx, 10, "", false)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if top[0].Command != "old command" || top[0].UsageCount != 2 {
		t.Fatalf("usage order: expected old command (usage=2) first, got %+v", top[0])
	}
}

func TestByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []struct{ cmd, cat string }{
		{"git status", "git"},
		{"git commit -m x", "git"},
		{"docker ps", "docker"},
	} {
		r := testRecord(c.cmd, "/a")
		r.Category = c.cat
		mustInsert(t, s, r)
	}

	git, err := s.ByCategory(ctx, "git", 10, "", false)
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(git) != 2 {
		t.Fatalf("expected 2 git commands, got %d", len(git))
	}
}

func TestQueryLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustInsert(t, s, testRecord("cmd "+string(rune('a'+i)), "/a"))
	}

	results, err := s.Query(ctx, Query{Limit: 3})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(results))
	}
}
