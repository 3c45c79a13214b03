// Package shell handles capture hook installation.
//
// - zsh:  preexec/precmd hooks appended to ~/.zshrc
// - bash: PROMPT_COMMAND hook appended to ~/.bashrc
// - fish: event handlers written to ~/.config/fish/conf.d/omniscient.fish
//
// Each hook times the command, then calls `omniscient capture` in the
// background so the prompt never waits on the database.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	userHomeDir = os.UserHomeDir
	readFileFn  = os.ReadFile
	writeFileFn = os.WriteFile
)

// Markers bound the managed block in rc files so repeated installs replace
// it instead of stacking copies.
const (
	markerBegin = "# >>> omniscient shell hook >>>"
	markerEnd   = "# <<< omniscient shell hook <<<"
)

// Result holds the outcome of a hook installation.
type Result struct {
	Shell       string
	Destination string
	Updated     bool // true when an existing hook block was replaced
}

const zshHook = `zmodload zsh/datetime
_omniscient_preexec() {
  _omniscient_cmd="$1"
  _omniscient_start=$EPOCHREALTIME
}
_omniscient_precmd() {
  local exit_code=$?
  [[ -z "$_omniscient_cmd" ]] && return
  local elapsed_ms=0
  if [[ -n "$_omniscient_start" ]]; then
    elapsed_ms=$(( (EPOCHREALTIME - _omniscient_start) * 1000 ))
    elapsed_ms=${elapsed_ms%.*}
  fi
  command omniscient capture --exit "$exit_code" --duration "$elapsed_ms" -- "$_omniscient_cmd" &>/dev/null &!
  _omniscient_cmd=""
}
autoload -Uz add-zsh-hook
add-zsh-hook preexec _omniscient_preexec
add-zsh-hook precmd _omniscient_precmd`

const bashHook = `_omniscient_prompt() {
  local exit_code=$?
  local cmd
  cmd=$(HISTTIMEFORMAT= history 1 | sed 's/^ *[0-9]* *//')
  [[ -z "$cmd" || "$cmd" == "$_omniscient_last" ]] && return
  _omniscient_last="$cmd"
  (command omniscient capture --exit "$exit_code" -- "$cmd" &>/dev/null &)
}
if [[ ":$PROMPT_COMMAND:" != *":_omniscient_prompt:"* ]]; then
  PROMPT_COMMAND="_omniscient_prompt${PROMPT_COMMAND:+;$PROMPT_COMMAND}"
fi`

const fishHook = `function _omniscient_preexec --on-event fish_preexec
  set -g _omniscient_cmd $argv[1]
  set -g _omniscient_start (date +%s%3N)
end
function _omniscient_postexec --on-event fish_postexec
  set -l exit_code $status
  test -z "$_omniscient_cmd"; and return
  set -l elapsed_ms 0
  if test -n "$_omniscient_start"
    set elapsed_ms (math (date +%s%3N) - $_omniscient_start)
  end
  command omniscient capture --exit $exit_code --duration $elapsed_ms -- $_omniscient_cmd &>/dev/null &
  set -g _omniscient_cmd ""
end`

// Supported returns the shells a hook exists for.
func Supported() []string {
	return []string{"zsh", "bash", "fish"}
}

// Snippet returns the raw hook script for a shell, suitable for
// `omniscient shell-init zsh | source` style setups.
func Snippet(shell string) (string, error) {
	switch shell {
	case "zsh":
		return zshHook, nil
	case "bash":
		return bashHook, nil
	case "fish":
		return fishHook, nil
	default:
		return "", fmt.Errorf("omniscient: unsupported shell %q (supported: zsh, bash, fish)", shell)
	}
}

// Install writes the hook into the shell's startup file. Re-running replaces
// the previously installed block in place.
func Install(shell string) (*Result, error) {
	snippet, err := Snippet(shell)
	if err != nil {
		return nil, err
	}
	dest, err := rcPath(shell)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("omniscient: create %s: %w", filepath.Dir(dest), err)
	}

	data, err := readFileFn(dest)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("omniscient: read %s: %w", dest, err)
	}

	updated := strings.Contains(string(data), markerBegin)
	out := upsertBlock(string(data), snippet)
	if err := writeFileFn(dest, []byte(out), 0644); err != nil {
		return nil, fmt.Errorf("omniscient: write %s: %w", dest, err)
	}

	return &Result{Shell: shell, Destination: dest, Updated: updated}, nil
}

// upsertBlock strips any existing managed block and appends a fresh one.
func upsertBlock(content, snippet string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var kept []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == markerBegin:
			inBlock = true
		case trimmed == markerEnd:
			inBlock = false
		case !inBlock:
			kept = append(kept, line)
		}
	}

	block := markerBegin + "\n" + snippet + "\n" + markerEnd

	base := strings.TrimRight(strings.Join(kept, "\n"), "\n")
	if strings.TrimSpace(base) == "" {
		return block + "\n"
	}
	return base + "\n\n" + block + "\n"
}

func rcPath(shell string) (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("omniscient: resolve home dir: %w", err)
	}

	switch shell {
	case "zsh":
		if zdot := os.Getenv("ZDOTDIR"); zdot != "" {
			return filepath.Join(zdot, ".zshrc"), nil
		}
		return filepath.Join(home, ".zshrc"), nil
	case "bash":
		return filepath.Join(home, ".bashrc"), nil
	case "fish":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "fish", "conf.d", "omniscient.fish"), nil
		}
		return filepath.Join(home, ".config", "fish", "conf.d", "omniscient.fish"), nil
	}
	return "", fmt.Errorf("omniscient: unsupported shell %q", shell)
}
