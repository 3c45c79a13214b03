// Omniscient — Personal shell command history with instant recall.
//
// Usage:
//
//	omniscient capture        Record a finished command (called by shell hooks)
//	omniscient search <query> Search history from CLI
//	omniscient recent         Show recently used commands
//	omniscient top            Show most used commands
//	omniscient stats          Show history statistics
//	omniscient tui            Launch interactive terminal UI
//	omniscient mcp            Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/daneb/omniscient/internal/archive"
	"github.com/daneb/omniscient/internal/capture"
	"github.com/daneb/omniscient/internal/category"
	"github.com/daneb/omniscient/internal/config"
	"github.com/daneb/omniscient/internal/mcp"
	"github.com/daneb/omniscient/internal/redact"
	"github.com/daneb/omniscient/internal/shell"
	"github.com/daneb/omniscient/internal/store"
	"github.com/daneb/omniscient/internal/tui"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		fatal(err)
	}

	switch os.Args[1] {
	case "capture":
		cmdCapture(cfg)
	case "search":
		cmdSearch(cfg)
	case "recent":
		cmdRecent(cfg)
	case "top":
		cmdTop(cfg)
	case "category":
		cmdCategory(cfg)
	case "stats":
		cmdStats(cfg)
	case "export":
		cmdExport(cfg)
	case "import":
		cmdImport(cfg)
	case "shell-init":
		cmdShellInit()
	case "shell-install":
		cmdShellInstall()
	case "mcp":
		cmdMCP(cfg)
	case "tui":
		cmdTUI(cfg)
	case "version", "--version", "-v":
		fmt.Printf("omniscient %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// ─── Store wiring ────────────────────────────────────────────────────────────

func openStore(cfg config.Config) *store.Store {
	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fatal(err)
	}
	return s
}

func newRecorder(cfg config.Config, s *store.Store) *capture.Recorder {
	patterns := append([]string{}, redact.DefaultPatterns...)
	patterns = append(patterns, cfg.Privacy.ExtraPatterns...)
	engine, err := redact.New(patterns, cfg.Privacy.RedactEnabled)
	if err != nil {
		fatal(err)
	}
	return capture.NewRecorder(s, engine, category.New(), cfg.Capture.MinDurationMS)
}

// ─── Commands ────────────────────────────────────────────────────────────────

func cmdCapture(cfg config.Config) {
	exitCode := 0
	var durationMS int64
	var cmdParts []string

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--exit":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					exitCode = n
				}
				i++
			}
		case "--duration":
			if i+1 < len(args) {
				if n, err := strconv.ParseInt(args[i+1], 10, 64); err == nil {
					durationMS = n
				}
				i++
			}
		case "--":
			cmdParts = append(cmdParts, args[i+1:]...)
			i = len(args)
		default:
			cmdParts = append(cmdParts, args[i])
		}
	}

	command := strings.Join(cmdParts, " ")
	if strings.TrimSpace(command) == "" {
		return
	}

	s := openStore(cfg)
	defer s.Close()

	// Capture errors stay quiet: the shell hook runs on every prompt
	// and must never disturb the user's terminal.
	rec := newRecorder(cfg, s)
	_, _ = rec.Capture(context.Background(), command, exitCode, durationMS)
}

func cmdSearch(cfg config.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: omniscient search <query> [--category CAT] [--dir DIR] [--recursive] [--success] [--limit N]")
		os.Exit(1)
	}

	var queryParts []string
	q := store.Query{Limit: cfg.Search.Limit, Order: store.OrderRelevance}

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--category":
			if i+1 < len(args) {
				q.Category = args[i+1]
				i++
			}
		case "--dir":
			if i+1 < len(args) {
				q.Dir = args[i+1]
				i++
			}
		case "--recursive":
			q.Recursive = true
		case "--success":
			ok := true
			q.Success = &ok
		case "--limit":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					q.Limit = n
				}
				i++
			}
		default:
			queryParts = append(queryParts, args[i])
		}
	}

	q.Term = strings.Join(queryParts, " ")
	if q.Term == "" {
		fmt.Fprintln(os.Stderr, "error: search query is required")
		os.Exit(1)
	}

	s := openStore(cfg)
	defer s.Close()

	results, err := s.Query(context.Background(), q)
	if err != nil {
		fatal(err)
	}

	if len(results) == 0 {
		fmt.Printf("No commands found for: %q\n", q.Term)
		return
	}

	fmt.Printf("Found %d commands:\n\n", len(results))
	printRecords(results)
}

func cmdRecent(cfg config.Config) {
	dir, recursive, limit := listFlags(cfg)

	s := openStore(cfg)
	defer s.Close()

	results, err := s.Recent(context.Background(), limit, dir, recursive)
	if err != nil {
		fatal(err)
	}
	if len(results) == 0 {
		fmt.Println("History is empty.")
		return
	}
	printRecords(results)
}

func cmdTop(cfg config.Config) {
	dir, recursive, limit := listFlags(cfg)

	s := openStore(cfg)
	defer s.Close()

	results, err := s.Top(context.Background(), limit, dir, recursive)
	if err != nil {
		fatal(err)
	}
	if len(results) == 0 {
		fmt.Println("History is empty.")
		return
	}

	for i, r := range results {
		fmt.Printf("[%d] %4dx  %s\n       %s | %s\n\n",
			i+1, r.UsageCount, r.Command, r.Category, r.Cwd)
	}
}

func cmdCategory(cfg config.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: omniscient category <name> [--limit N]\ncategories: %s\n",
			strings.Join(category.New().Categories(), ", "))
		os.Exit(1)
	}

	name := os.Args[2]
	limit := cfg.Search.Limit
	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--limit" && i+1 < len(os.Args) {
			if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
				limit = n
			}
			i++
		}
	}

	s := openStore(cfg)
	defer s.Close()

	results, err := s.ByCategory(context.Background(), name, limit, "", false)
	if err != nil {
		fatal(err)
	}
	if len(results) == 0 {
		fmt.Printf("No commands in category %q.\n", name)
		return
	}
	printRecords(results)
}

func cmdStats(cfg config.Config) {
	s := openStore(cfg)
	defer s.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Omniscient History Stats\n")
	fmt.Printf("  Commands:     %d\n", stats.TotalCommands)
	fmt.Printf("  Succeeded:    %d\n", stats.SuccessfulCommands)
	fmt.Printf("  Failed:       %d\n", stats.FailedCommands)
	fmt.Printf("  Success rate: %.1f%%\n", stats.SuccessRate())
	if stats.OldestCommand != nil {
		fmt.Printf("  Oldest:       %s\n", stats.OldestCommand.Format("2006-01-02 15:04"))
	}
	if stats.NewestCommand != nil {
		fmt.Printf("  Newest:       %s\n", stats.NewestCommand.Format("2006-01-02 15:04"))
	}
	if len(stats.ByCategory) > 0 {
		fmt.Println("  Categories:")
		for _, c := range stats.ByCategory {
			fmt.Printf("    %-12s %d\n", c.Category, c.Count)
		}
	}
	fmt.Printf("  Database:     %s\n", cfg.Storage.Path)
}

func cmdExport(cfg config.Config) {
	outFile := "omniscient-export.json"
	if len(os.Args) > 2 {
		outFile = os.Args[2]
	}

	s := openStore(cfg)
	defer s.Close()

	f, err := os.Create(outFile)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	n, err := archive.Export(context.Background(), s, f)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Exported %d commands to %s\n", n, outFile)
}

func cmdImport(cfg config.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: omniscient import <file.json> [--policy skip|update-usage|preserve-higher]")
		os.Exit(1)
	}

	inFile := os.Args[2]
	policyName := ""
	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--policy" && i+1 < len(os.Args) {
			policyName = os.Args[i+1]
			i++
		}
	}

	policy, err := archive.ParsePolicy(policyName)
	if err != nil {
		fatal(err)
	}

	f, err := os.Open(inFile)
	if err != nil {
		fatal(fmt.Errorf("read %s: %w", inFile, err))
	}
	defer f.Close()

	s := openStore(cfg)
	defer s.Close()

	sum, err := archive.Import(context.Background(), s, f, policy)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Imported from %s (%s)\n", inFile, policy)
	fmt.Printf("  Imported: %d\n", sum.Imported)
	fmt.Printf("  Merged:   %d\n", sum.Merged)
	fmt.Printf("  Skipped:  %d\n", sum.Skipped)
	fmt.Printf("  Errors:   %d\n", sum.Errors)
}

func cmdShellInit() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: omniscient shell-init <%s>\n", strings.Join(shell.Supported(), "|"))
		os.Exit(1)
	}

	snippet, err := shell.Snippet(os.Args[2])
	if err != nil {
		fatal(err)
	}
	fmt.Println(snippet)
}

func cmdShellInstall() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: omniscient shell-install <%s>\n", strings.Join(shell.Supported(), "|"))
		os.Exit(1)
	}

	res, err := shell.Install(os.Args[2])
	if err != nil {
		fatal(err)
	}

	verb := "Installed"
	if res.Updated {
		verb = "Updated"
	}
	fmt.Printf("%s %s hook in %s\n", verb, res.Shell, res.Destination)
	fmt.Println("Restart your shell or source the file to start capturing.")
}

func cmdMCP(cfg config.Config) {
	s := openStore(cfg)
	defer s.Close()

	mcpSrv := mcp.NewServer(s, newRecorder(cfg, s))
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		fatal(err)
	}
}

func cmdTUI(cfg config.Config) {
	s := openStore(cfg)
	defer s.Close()

	model := tui.New(s, version)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func listFlags(cfg config.Config) (dir string, recursive bool, limit int) {
	limit = cfg.Search.Limit
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--dir":
			if i+1 < len(args) {
				dir = args[i+1]
				i++
			}
		case "--recursive":
			recursive = true
		case "--limit":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					limit = n
				}
				i++
			}
		}
	}
	return dir, recursive, limit
}

func printRecords(results []store.Record) {
	for i, r := range results {
		status := "ok"
		if !r.Success() {
			status = fmt.Sprintf("exit %d", r.ExitCode)
		}
		fmt.Printf("[%d] %s\n    %s | %s | used %dx | last %s | %s\n\n",
			i+1, r.Command,
			r.Category, r.Cwd, r.UsageCount,
			r.LastUsedAt.Format("2006-01-02 15:04"), status)
	}
}

func printUsage() {
	fmt.Printf(`omniscient v%s — Personal shell command history with instant recall

Usage:
  omniscient <command> [arguments]

Commands:
  capture            Record a finished command (called by shell hooks)
                       --exit N --duration MS -- <command...>
  search <query>     Search history [--category CAT] [--dir DIR] [--recursive] [--success] [--limit N]
  recent             Recently used commands [--dir DIR] [--recursive] [--limit N]
  top                Most used commands [--dir DIR] [--recursive] [--limit N]
  category <name>    Commands in a category [--limit N]
  stats              Show history statistics
  export [file]      Export history to JSON (default: omniscient-export.json)
  import <file>      Merge a history export [--policy skip|update-usage|preserve-higher]
  shell-init <sh>    Print the capture hook for zsh, bash, or fish
  shell-install <sh> Install the capture hook into the shell's startup file
  mcp                Start MCP server (stdio transport, for any AI agent)
  tui                Launch interactive terminal UI
  version            Print version
  help               Show this help

Environment:
  OMNISCIENT_DB      Override database path (default: ~/.local/share/omniscient/history.db)

Config:
  ~/.config/omniscient/config.yaml

MCP Configuration (add to your agent's config):
  {
    "mcp": {
      "omniscient": {
        "type": "stdio",
        "command": "omniscient",
        "args": ["mcp"]
      }
    }
  }
`, version)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "omniscient: %s\n", err)
	os.Exit(1)
}
