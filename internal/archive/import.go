package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/daneb/omniscient/internal/store"
)

// MalformedRecordError marks one record in an envelope that cannot be
// merged. It is counted in Summary.Errors and never aborts the batch.
type MalformedRecordError struct {
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return "omniscient: import: " + e.Reason
}

// Summary reports what a merge did. It is filled in even when individual
// records fail.
type Summary struct {
	Imported int `json:"imported"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

func (s Summary) String() string {
	return fmt.Sprintf("imported %d, merged %d, skipped %d, errors %d",
		s.Imported, s.Merged, s.Skipped, s.Errors)
}

// Import merges an exported envelope into the store. Collisions on
// (command, cwd) are resolved per policy; malformed records count as errors
// without aborting the batch. A structurally invalid or version-incompatible
// envelope fails outright.
func Import(ctx context.Context, s *store.Store, r io.Reader, policy Policy) (Summary, error) {
	var sum Summary

	var env importEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return sum, fmt.Errorf("omniscient: import: parse envelope: %w", err)
	}
	if env.Version == "" {
		return sum, errors.New("omniscient: import: envelope missing version")
	}
	if !strings.HasPrefix(env.Version, "1.") {
		return sum, fmt.Errorf("omniscient: import: unsupported envelope version %q", env.Version)
	}

	for _, raw := range env.Commands {
		var rec store.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			sum.Errors++
			continue
		}
		if err := validate(rec); err != nil {
			sum.Errors++
			continue
		}
		if err := mergeOne(ctx, s, rec, policy, &sum); err != nil {
			if errors.Is(err, store.ErrStorageUnavailable) {
				return sum, err
			}
			sum.Errors++
		}
	}
	return sum, nil
}

// mergeOne applies one incoming record. Safe to re-run: an insert that loses
// a duplicate race falls back to conflict resolution.
func mergeOne(ctx context.Context, s *store.Store, rec store.Record, policy Policy, sum *Summary) error {
	local, err := s.Find(ctx, rec.Command, rec.Cwd)
	switch {
	case err == nil:
		return resolve(ctx, s, local, rec, policy, sum)
	case errors.Is(err, store.ErrNotFound):
		rec.ID = 0
		if _, err := s.Insert(ctx, &rec); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				local, ferr := s.Find(ctx, rec.Command, rec.Cwd)
				if ferr != nil {
					return ferr
				}
				return resolve(ctx, s, local, rec, policy, sum)
			}
			return err
		}
		sum.Imported++
		return nil
	default:
		return err
	}
}

func resolve(ctx context.Context, s *store.Store, local *store.Record, incoming store.Record, policy Policy, sum *Summary) error {
	switch policy {
	case PolicySkip:
		sum.Skipped++
		return nil
	case PolicyUpdateUsage:
		if err := s.Touch(ctx, local.ID); err != nil {
			return err
		}
		sum.Merged++
		return nil
	case PolicyPreserveHigher:
		if incoming.UsageCount > local.UsageCount {
			if err := s.SetUsage(ctx, local.ID, incoming.UsageCount); err != nil {
				return err
			}
		}
		sum.Merged++
		return nil
	}
	return fmt.Errorf("omniscient: import: unknown policy %v", policy)
}

func validate(rec store.Record) error {
	if strings.TrimSpace(rec.Command) == "" {
		return &MalformedRecordError{Reason: "record missing command"}
	}
	if rec.Cwd == "" {
		return &MalformedRecordError{Reason: "record missing working_dir"}
	}
	if rec.DurationMS < 0 {
		return &MalformedRecordError{Reason: "negative duration"}
	}
	return nil
}
