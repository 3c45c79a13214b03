package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ─── Two-tier text search ────────────────────────────────────────────────────
//
// Primary path: the term is wrapped as a literal FTS5 phrase so punctuation,
// path separators, dots in IP addresses etc. are ordinary text, not query
// operators. If FTS5 still rejects the term, the same query re-runs as a
// case-sensitive substring scan with identical filters. The fallback is
// slower but can never reject a term, so a search never errors out on the
// shape of its input.

func (s *Store) search(ctx context.Context, q Query) ([]Record, error) {
	cands, err := s.searchFTS(ctx, q)
	if err != nil {
		if !isFTSQueryError(err) {
			return nil, fmt.Errorf("omniscient: search: %w", err)
		}
		cands, err = s.searchScan(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("omniscient: search fallback: %w", err)
		}
	}

	if q.Order == OrderRelevance {
		rankByRelevance(cands, q.Term, time.Now())
	}

	results := make([]Record, len(cands))
	for i, c := range cands {
		results[i] = c.rec
	}
	return results, nil
}

// sanitizeFTS turns an arbitrary term into a literal FTS5 phrase: embedded
// phrase delimiters are doubled, then the whole term is quoted.
// `grep "pattern"` → `"grep ""pattern"""`.
func sanitizeFTS(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// isFTSQueryError reports whether err came from the FTS5 query grammar
// rejecting a term. Only this class of error triggers the fallback scan;
// anything else (I/O, corruption) propagates.
func isFTSQueryError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "fts5")
}

// candidate is a record plus the FTS engine's native rank for it.
// bm25 ranks are negative-is-better; the fallback path reports 0.
type candidate struct {
	rec  Record
	rank float64
}

func (s *Store) searchFTS(ctx context.Context, q Query) ([]candidate, error) {
	where, args := q.filterSQL("c.")
	args = append([]any{sanitizeFTS(q.Term)}, args...)

	sqlStr := `
		SELECT c.id, c.command, c.occurred_at, c.exit_code, c.duration_ms,
		       c.cwd, c.category, c.usage_count, c.last_used_at,
		       fts.rank
		FROM commands_fts fts
		JOIN commands c ON c.id = fts.rowid
		WHERE commands_fts MATCH ?` + where

	if q.Order == OrderRelevance {
		sqlStr += " ORDER BY fts.rank"
	} else {
		sqlStr += q.orderSQL("c.")
	}
	sqlStr += " LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var r Record
		var occurredAt, lastUsedAt string
		var rank float64
		if err := rows.Scan(
			&r.ID, &r.Command, &occurredAt, &r.ExitCode, &r.DurationMS,
			&r.Cwd, &r.Category, &r.UsageCount, &lastUsedAt,
			&rank,
		); err != nil {
			return nil, err
		}
		if r.OccurredAt, err = time.Parse(timeFormat, occurredAt); err != nil {
			return nil, err
		}
		if r.LastUsedAt, err = time.Parse(timeFormat, lastUsedAt); err != nil {
			return nil, err
		}
		cands = append(cands, candidate{rec: r, rank: rank})
	}
	return cands, rows.Err()
}

// searchScan is the fallback path: a case-sensitive substring match via
// instr(), with the same filters re-applied. No index support, so no native
// rank — relevance scoring starts from zero for these candidates.
func (s *Store) searchScan(ctx context.Context, q Query) ([]candidate, error) {
	where, filterArgs := q.filterSQL("")
	args := append([]any{q.Term}, filterArgs...)

	sqlStr := selectColumns + ` FROM commands WHERE instr(command, ?) > 0` + where
	if q.Order == OrderRelevance {
		sqlStr += " ORDER BY usage_count DESC, last_used_at DESC"
	} else {
		sqlStr += q.orderSQL("")
	}
	sqlStr += " LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{rec: *r})
	}
	return cands, rows.Err()
}

// ─── Relevance ranking ───────────────────────────────────────────────────────

// relevanceScore combines four signals:
//
//	base      — the FTS engine's native score (−bm25, since lower bm25 is better)
//	substring — +10.0 when the term appears literally in the command
//	frequency — +ln(usage_count), sub-linear so heavy hitters don't drown out the rest
//	recency   — +1/(1+age_days/30), a ~30-day half-life decay on last use
func relevanceScore(c candidate, term string, now time.Time) float64 {
	score := -c.rank

	if strings.Contains(c.rec.Command, term) {
		score += 10.0
	}

	if c.rec.UsageCount > 0 {
		score += math.Log(float64(c.rec.UsageCount))
	}

	ageDays := now.Sub(c.rec.LastUsedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score += 1 / (1 + ageDays/30)

	return score
}

// rankByRelevance sorts candidates by descending score, breaking ties with
// the more recently used record.
func rankByRelevance(cands []candidate, term string, now time.Time) {
	type ranked struct {
		c     candidate
		score float64
	}
	rs := make([]ranked, len(cands))
	for i, c := range cands {
		rs[i] = ranked{c: c, score: relevanceScore(c, term, now)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].score != rs[j].score {
			return rs[i].score > rs[j].score
		}
		return rs[i].c.rec.LastUsedAt.After(rs[j].c.rec.LastUsedAt)
	})
	for i, r := range rs {
		cands[i] = r.c
	}
}
