// Package redact suppresses commands that match sensitive patterns before
// they reach storage. A match replaces the whole command with the Suppressed
// sentinel; the capture layer drops suppressed commands entirely.
package redact

import (
	"fmt"
	"regexp"
)

// Suppressed is what Redact returns for a command matching any pattern.
const Suppressed = "[REDACTED]"

// DefaultPatterns are the built-in sensitive markers.
var DefaultPatterns = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"apikey",
}

// Engine matches commands against case-insensitive patterns.
type Engine struct {
	patterns []*regexp.Regexp
	enabled  bool
}

// New compiles the given patterns (case-insensitively). An invalid pattern
// is a caller error and fails construction.
func New(patterns []string, enabled bool) (*Engine, error) {
	e := &Engine{enabled: enabled}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("omniscient: invalid redaction pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

// Default returns an enabled engine with the built-in patterns.
func Default() *Engine {
	e, err := New(DefaultPatterns, true)
	if err != nil {
		panic("redact: default patterns must compile: " + err.Error())
	}
	return e
}

// ShouldRedact reports whether the command matches any pattern.
// Always false when the engine is disabled.
func (e *Engine) ShouldRedact(command string) bool {
	if !e.enabled {
		return false
	}
	for _, re := range e.patterns {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// Redact returns Suppressed for matching commands, the input otherwise.
func (e *Engine) Redact(command string) string {
	if e.ShouldRedact(command) {
		return Suppressed
	}
	return command
}

// Enabled reports whether redaction is active.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// PatternCount returns the number of compiled patterns.
func (e *Engine) PatternCount() int {
	return len(e.patterns)
}
