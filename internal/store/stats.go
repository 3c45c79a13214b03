package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stats summarizes the stored history.
type Stats struct {
	TotalCommands      int             `json:"total_commands"`
	SuccessfulCommands int             `json:"successful_commands"`
	FailedCommands     int             `json:"failed_commands"`
	ByCategory         []CategoryCount `json:"by_category"`
	OldestCommand      *time.Time      `json:"oldest_command,omitempty"`
	NewestCommand      *time.Time      `json:"newest_command,omitempty"`
}

// CategoryCount is the number of distinct commands in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// SuccessRate returns the percentage of commands that exited cleanly.
func (s Stats) SuccessRate() float64 {
	if s.TotalCommands == 0 {
		return 0
	}
	return float64(s.SuccessfulCommands) / float64(s.TotalCommands) * 100
}

// Stats computes history-wide counters.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM commands").Scan(&stats.TotalCommands); err != nil {
		return nil, fmt.Errorf("omniscient: stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM commands WHERE exit_code = 0").Scan(&stats.SuccessfulCommands); err != nil {
		return nil, fmt.Errorf("omniscient: stats: %w", err)
	}
	stats.FailedCommands = stats.TotalCommands - stats.SuccessfulCommands

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) AS count FROM commands
		 GROUP BY category ORDER BY count DESC, category`,
	)
	if err != nil {
		return nil, fmt.Errorf("omniscient: stats by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("omniscient: stats by category: %w", err)
		}
		stats.ByCategory = append(stats.ByCategory, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullString
	err = s.db.QueryRowContext(ctx,
		"SELECT MIN(occurred_at), MAX(occurred_at) FROM commands",
	).Scan(&oldest, &newest)
	if err == nil && oldest.Valid {
		if t, perr := time.Parse(timeFormat, oldest.String); perr == nil {
			stats.OldestCommand = &t
		}
		if t, perr := time.Parse(timeFormat, newest.String); perr == nil {
			stats.NewestCommand = &t
		}
	}

	return stats, nil
}
