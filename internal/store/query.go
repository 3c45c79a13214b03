package store

import (
	"context"
	"fmt"
	"strings"
)

// ─── Query ───────────────────────────────────────────────────────────────────

// Order selects how query results are sorted.
type Order int

const (
	// OrderRecency sorts by last_used_at, newest first.
	OrderRecency Order = iota
	// OrderUsage sorts by usage_count, highest first.
	OrderUsage
	// OrderRelevance ranks text searches by combined score; see search.go.
	// Without a search term it behaves like OrderUsage.
	OrderRelevance
)

// DefaultLimit bounds queries that don't specify their own limit.
const DefaultLimit = 20

// Query is the generic predicate for reads. Zero-value fields are inactive.
//
// Dir is compared exactly as supplied — no canonicalization, symlink
// resolution, or trailing-slash normalization. With Recursive set, matching
// is a literal prefix test, so a filter on "/foo" also matches a sibling
// "/foobar". That looseness is long-standing observed behavior and is kept.
type Query struct {
	Term      string
	Category  string
	Success   *bool
	Dir       string
	Recursive bool
	Limit     int
	Order     Order
}

// filterSQL renders the non-text predicates as an AND chain.
func (q Query) filterSQL(col string) (string, []any) {
	var b strings.Builder
	var args []any

	if q.Category != "" {
		fmt.Fprintf(&b, " AND %scategory = ?", col)
		args = append(args, q.Category)
	}
	if q.Success != nil {
		if *q.Success {
			fmt.Fprintf(&b, " AND %sexit_code = 0", col)
		} else {
			fmt.Fprintf(&b, " AND %sexit_code != 0", col)
		}
	}
	if q.Dir != "" {
		if q.Recursive {
			fmt.Fprintf(&b, ` AND %scwd LIKE ? ESCAPE '\'`, col)
			args = append(args, escapeLike(q.Dir)+"%")
		} else {
			fmt.Fprintf(&b, " AND %scwd = ?", col)
			args = append(args, q.Dir)
		}
	}
	return b.String(), args
}

func (q Query) orderSQL(col string) string {
	switch q.Order {
	case OrderRecency:
		return fmt.Sprintf(" ORDER BY %slast_used_at DESC", col)
	default:
		return fmt.Sprintf(" ORDER BY %susage_count DESC, %slast_used_at DESC", col, col)
	}
}

// escapeLike makes a string literal inside a LIKE pattern by escaping the
// pattern metacharacters.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ─── Execution ───────────────────────────────────────────────────────────────

// Query runs a filtered read. Queries with a search term go through the
// two-tier search path (FTS5 first, substring scan on syntax failure);
// everything else is a plain indexed scan.
func (s *Store) Query(ctx context.Context, q Query) ([]Record, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	if q.Term != "" {
		return s.search(ctx, q)
	}

	where, args := q.filterSQL("")
	sqlStr := selectColumns + " FROM commands WHERE 1=1" + where + q.orderSQL("") + " LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("omniscient: query: %w", err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("omniscient: query: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// Recent returns the most recently used records, optionally scoped to a
// directory (exact, or the whole subtree with recursive).
func (s *Store) Recent(ctx context.Context, limit int, dir string, recursive bool) ([]Record, error) {
	return s.Query(ctx, Query{
		Dir:       dir,
		Recursive: recursive,
		Limit:     limit,
		Order:     OrderRecency,
	})
}

// Top returns the most frequently used records.
func (s *Store) Top(ctx context.Context, limit int, dir string, recursive bool) ([]Record, error) {
	return s.Query(ctx, Query{
		Dir:       dir,
		Recursive: recursive,
		Limit:     limit,
		Order:     OrderUsage,
	})
}

// ByCategory returns records in a category, most used first.
func (s *Store) ByCategory(ctx context.Context, category string, limit int, dir string, recursive bool) ([]Record, error) {
	return s.Query(ctx, Query{
		Category:  category,
		Dir:       dir,
		Recursive: recursive,
		Limit:     limit,
		Order:     OrderUsage,
	})
}
