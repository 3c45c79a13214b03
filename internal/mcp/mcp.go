// Package mcp implements the Model Context Protocol server for Omniscient.
//
// This exposes the command history over MCP stdio transport so any agent
// (OpenCode, Claude Code, Cursor, Windsurf, etc.) can search, record, and
// merge shell history just by adding it as an MCP server.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/daneb/omniscient/internal/archive"
	"github.com/daneb/omniscient/internal/capture"
	"github.com/daneb/omniscient/internal/store"
)

// serverInstructions tells MCP clients when to reach for Omniscient's tools.
// This string is returned in the initialize response and may be added to the
// system prompt by clients.
const serverInstructions = `Omniscient is the user's persistent shell command history. ` +
	`Search these tools when you need to: find commands the user has run before ` +
	`(exact flags, paths, pipelines); see what was recently executed in a ` +
	`directory; record a command you ran on the user's behalf; merge history ` +
	`exported from another machine. Key tools: hist_search, hist_recent, ` +
	`hist_top.`

// NewServer creates the MCP server with all history tools registered.
func NewServer(s *store.Store, rec *capture.Recorder) *server.MCPServer {
	srv := server.NewMCPServer(
		"omniscient",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	registerTools(srv, s, rec)
	return srv
}

func registerTools(srv *server.MCPServer, s *store.Store, rec *capture.Recorder) {
	// ─── hist_search ────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_search",
			mcp.WithDescription("Search the user's shell command history. Handles literal queries with special characters (IPs, URLs, paths, quotes). Results are ranked by text match, usage frequency, and recency."),
			mcp.WithTitleAnnotation("Search Command History"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search text — matched literally, so 'git push --force' finds exactly that"),
			),
			mcp.WithString("category",
				mcp.Description("Filter by category: git, docker, package, file, network, build, database, kubernetes, cloud, editor, system, vcs, other"),
			),
			mcp.WithString("dir",
				mcp.Description("Only commands run in this working directory"),
			),
			mcp.WithBoolean("recursive",
				mcp.Description("With dir: include subdirectories"),
			),
			mcp.WithBoolean("success_only",
				mcp.Description("Only commands that exited 0"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Max results (default: 20)"),
			),
		),
		handleSearch(s),
	)

	// ─── hist_recent ────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_recent",
			mcp.WithDescription("List the most recently used commands, optionally scoped to a directory."),
			mcp.WithTitleAnnotation("Recent Commands"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("dir",
				mcp.Description("Only commands run in this working directory"),
			),
			mcp.WithBoolean("recursive",
				mcp.Description("With dir: include subdirectories"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Max results (default: 20)"),
			),
		),
		handleRecent(s),
	)

	// ─── hist_top ───────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_top",
			mcp.WithDescription("List the most frequently used commands by usage count."),
			mcp.WithTitleAnnotation("Top Commands"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("category",
				mcp.Description("Filter by category"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Max results (default: 20)"),
			),
		),
		handleTop(s),
	)

	// ─── hist_stats ─────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_stats",
			mcp.WithDescription("Summarize the history database: totals, success rate, category breakdown."),
			mcp.WithTitleAnnotation("History Stats"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
		),
		handleStats(s),
	)

	// ─── hist_capture ───────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_capture",
			mcp.WithDescription("Record a command execution into the history. Repeats of the same command in the same directory bump its usage count instead of creating duplicates. Commands matching the privacy patterns are silently dropped."),
			mcp.WithTitleAnnotation("Capture Command"),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("The command line that was executed"),
			),
			mcp.WithNumber("exit_code",
				mcp.Description("Exit status (default: 0)"),
			),
			mcp.WithNumber("duration_ms",
				mcp.Description("Wall-clock duration in milliseconds"),
			),
		),
		handleCapture(rec),
	)

	// ─── hist_merge ─────────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("hist_merge",
			mcp.WithDescription("Merge a history export file from another machine into the local database. Collisions on (command, directory) are resolved by the chosen policy."),
			mcp.WithTitleAnnotation("Merge History Export"),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path to the exported JSON envelope"),
			),
			mcp.WithString("policy",
				mcp.Description("Conflict policy: skip, update-usage, or preserve-higher (default)"),
			),
		),
		handleMerge(s),
	)
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleSearch(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		term, _ := req.GetArguments()["query"].(string)
		category, _ := req.GetArguments()["category"].(string)
		dir, _ := req.GetArguments()["dir"].(string)

		q := store.Query{
			Term:      term,
			Category:  category,
			Dir:       dir,
			Recursive: boolArg(req, "recursive", false),
			Limit:     intArg(req, "limit", store.DefaultLimit),
			Order:     store.OrderRelevance,
		}
		if boolArg(req, "success_only", false) {
			ok := true
			q.Success = &ok
		}

		results, err := s.Query(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Search error: %s. Try simpler keywords.", err)), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No commands found for: %q", term)), nil
		}
		return mcp.NewToolResultText(formatRecords(results)), nil
	}
}

func handleRecent(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir, _ := req.GetArguments()["dir"].(string)

		q := store.Query{
			Dir:       dir,
			Recursive: boolArg(req, "recursive", false),
			Limit:     intArg(req, "limit", store.DefaultLimit),
			Order:     store.OrderRecency,
		}
		results, err := s.Query(ctx, q)
		if err != nil {
			return mcp.NewToolResultError("Failed to list recent commands: " + err.Error()), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("History is empty."), nil
		}
		return mcp.NewToolResultText(formatRecords(results)), nil
	}
}

func handleTop(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category, _ := req.GetArguments()["category"].(string)

		q := store.Query{
			Category: category,
			Limit:    intArg(req, "limit", store.DefaultLimit),
			Order:    store.OrderUsage,
		}
		results, err := s.Query(ctx, q)
		if err != nil {
			return mcp.NewToolResultError("Failed to list top commands: " + err.Error()), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("History is empty."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Top %d commands:\n\n", len(results))
		for i, r := range results {
			fmt.Fprintf(&b, "[%d] %dx  %s\n    %s | %s\n\n",
				i+1, r.UsageCount, r.Command, r.Category, r.Cwd)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleStats(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := s.Stats(ctx)
		if err != nil {
			return mcp.NewToolResultError("Failed to get stats: " + err.Error()), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Command History Stats:\n- Commands: %d\n- Successful: %d\n- Failed: %d\n- Success rate: %.1f%%\n",
			stats.TotalCommands, stats.SuccessfulCommands, stats.FailedCommands, stats.SuccessRate())
		if len(stats.ByCategory) > 0 {
			b.WriteString("- Categories:\n")
			for _, c := range stats.ByCategory {
				fmt.Fprintf(&b, "    %s: %d\n", c.Category, c.Count)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleCapture(rec *capture.Recorder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		command, _ := req.GetArguments()["command"].(string)
		if strings.TrimSpace(command) == "" {
			return mcp.NewToolResultError("command is required"), nil
		}

		exitCode := intArg(req, "exit_code", 0)
		durationMS := int64(intArg(req, "duration_ms", 0))

		stored, err := rec.Capture(ctx, command, exitCode, durationMS)
		if err != nil {
			return mcp.NewToolResultError("Failed to capture: " + err.Error()), nil
		}
		if !stored {
			return mcp.NewToolResultText("Command not recorded (filtered by capture rules)."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Recorded: %q (exit %d)", truncate(command, 80), exitCode)), nil
	}
}

func handleMerge(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, _ := req.GetArguments()["path"].(string)
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		policyName, _ := req.GetArguments()["policy"].(string)
		policy, err := archive.ParsePolicy(policyName)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		f, err := os.Open(path)
		if err != nil {
			return mcp.NewToolResultError("Failed to open export: " + err.Error()), nil
		}
		defer f.Close()

		sum, err := archive.Import(ctx, s, f, policy)
		if err != nil {
			return mcp.NewToolResultError("Merge failed: " + err.Error()), nil
		}
		return mcp.NewToolResultText("Merge complete: " + sum.String()), nil
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatRecords(results []store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d commands:\n\n", len(results))
	for i, r := range results {
		status := "ok"
		if !r.Success() {
			status = fmt.Sprintf("exit %d", r.ExitCode)
		}
		fmt.Fprintf(&b, "[%d] %s\n    %s | %s | used %dx | last %s | %s\n\n",
			i+1, r.Command,
			r.Category, r.Cwd, r.UsageCount,
			r.LastUsedAt.Format("2006-01-02 15:04"), status)
	}
	return b.String()
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
