package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/daneb/omniscient/internal/store"
)

// Export writes the full history as a JSON envelope. Records appear in
// insertion order. Returns the number of records written.
func Export(ctx context.Context, s *store.Store, w io.Writer) (int, error) {
	env := Envelope{
		Version:    Version,
		ID:         uuid.NewString(),
		ExportedAt: time.Now().UTC(),
	}

	err := s.ForEach(ctx, func(rec store.Record) error {
		env.Commands = append(env.Commands, rec)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("omniscient: export: %w", err)
	}
	env.CommandCount = len(env.Commands)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return 0, fmt.Errorf("omniscient: export: encode: %w", err)
	}
	return env.CommandCount, nil
}
