// Package capture turns a raw command execution into exactly one store
// mutation: a new record on first sight of a (command, cwd) pair, a usage
// bump on every repeat.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/daneb/omniscient/internal/category"
	"github.com/daneb/omniscient/internal/redact"
	"github.com/daneb/omniscient/internal/store"
)

// Recorder wires redaction and categorization in front of the store's
// dedup contract.
type Recorder struct {
	store         *store.Store
	redactor      *redact.Engine
	categorizer   *category.Categorizer
	minDurationMS int64
}

// NewRecorder builds a Recorder. minDurationMS below or equal to zero
// captures everything.
func NewRecorder(s *store.Store, r *redact.Engine, c *category.Categorizer, minDurationMS int64) *Recorder {
	return &Recorder{
		store:         s,
		redactor:      r,
		categorizer:   c,
		minDurationMS: minDurationMS,
	}
}

// Capture processes one finished command from the shell hook. Empty
// commands, commands under the duration threshold, and fully redacted
// commands are silently dropped; the bool reports whether the command
// reached the store. The working directory is the process cwd.
func (r *Recorder) Capture(ctx context.Context, command string, exitCode int, durationMS int64) (bool, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return false, nil
	}
	if durationMS < r.minDurationMS {
		return false, nil
	}

	command = r.redactor.Redact(command)
	if command == redact.Suppressed {
		return false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/unknown"
	}

	now := time.Now().UTC()
	err = r.Record(ctx, &store.Record{
		Command:    command,
		OccurredAt: now,
		ExitCode:   exitCode,
		DurationMS: durationMS,
		Cwd:        cwd,
		Category:   r.categorizer.Categorize(command),
		UsageCount: 1,
		LastUsedAt: now,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record applies the dedup contract for an already-prepared record:
// an existing (command, cwd) pair gets a Touch and the candidate's own
// metadata is discarded; an unseen pair is inserted as-is.
//
// The insert can lose a race against a concurrent writer capturing the
// same pair — the store reports that as ErrDuplicate and the loser
// recovers by re-finding the row and touching it.
func (r *Recorder) Record(ctx context.Context, rec *store.Record) error {
	existing, err := r.store.Find(ctx, rec.Command, rec.Cwd)
	if err == nil {
		return r.store.Touch(ctx, existing.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("omniscient: capture: %w", err)
	}

	if _, err := r.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, ferr := r.store.Find(ctx, rec.Command, rec.Cwd)
			if ferr != nil {
				return fmt.Errorf("omniscient: capture: lost insert race, refind: %w", ferr)
			}
			return r.store.Touch(ctx, existing.ID)
		}
		return fmt.Errorf("omniscient: capture: %w", err)
	}
	return nil
}
