// Package archive moves command history between independent databases
// through a versioned JSON envelope: export dumps the full history, import
// merges an envelope into the local store under a conflict policy.
//
// A merge is deliberately not one transaction — every record is
// independently idempotent to re-apply, so partial progress on failure is
// fine and a re-run converges.
package archive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/daneb/omniscient/internal/store"
)

// Version is the envelope format version. Importers reject envelopes whose
// major version differs.
const Version = "1.0"

// ─── Envelope ────────────────────────────────────────────────────────────────

// Envelope is the export payload.
type Envelope struct {
	Version      string         `json:"version"`
	ID           string         `json:"id,omitempty"`
	ExportedAt   time.Time      `json:"exported_at"`
	CommandCount int            `json:"command_count"`
	Commands     []store.Record `json:"commands"`
}

// importEnvelope defers record decoding so one malformed record is counted
// instead of failing the whole envelope.
type importEnvelope struct {
	Version  string            `json:"version"`
	Commands []json.RawMessage `json:"commands"`
}

// ─── Policies ────────────────────────────────────────────────────────────────

// Policy decides what happens when an incoming record collides with a local
// record on (command, cwd).
type Policy int

const (
	// PolicySkip leaves the local record untouched.
	PolicySkip Policy = iota
	// PolicyUpdateUsage bumps the local usage count by one, like a live repeat.
	PolicyUpdateUsage
	// PolicyPreserveHigher keeps whichever usage count is larger.
	PolicyPreserveHigher
)

func (p Policy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	case PolicyUpdateUsage:
		return "update-usage"
	case PolicyPreserveHigher:
		return "preserve-higher"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps the CLI's policy names to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "skip":
		return PolicySkip, nil
	case "update-usage":
		return PolicyUpdateUsage, nil
	case "preserve-higher", "":
		return PolicyPreserveHigher, nil
	}
	return 0, fmt.Errorf("omniscient: unknown merge policy %q", s)
}
