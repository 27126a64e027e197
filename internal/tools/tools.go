// Package tools exposes the analysis toolkit as an MCP server.
package tools

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SourceScope/source-scope-mcp/internal/analyze"
	"github.com/SourceScope/source-scope-mcp/internal/compat"
	"github.com/SourceScope/source-scope-mcp/internal/config"
	"github.com/SourceScope/source-scope-mcp/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Options wires a Server. Store is required; a nil Config means defaults.
type Options struct {
	Store   *store.Store
	Config  *config.Config
	Version string
}

// Server wraps the MCP server with the analyzer and the platform
// compatibility manager behind the tool handlers.
type Server struct {
	mcp      *mcp.Server
	store    *store.Store
	cfg      *config.Config
	manager  *compat.Manager
	analyzer *analyze.Analyzer
}

// NewServer creates the MCP server with all tools registered. The platform
// profile is resolved up front so SQL analysis always runs adapted; on a
// platform with no recorded profile this records one.
func NewServer(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	cache := compat.NewCache(cfg.EffectiveCacheSize(), cfg.EffectiveCacheTTL())
	manager := compat.NewManager(cfg.EffectiveProfilesDir(), cache)

	adapter, err := manager.AdapterFor()
	if err != nil {
		slog.Warn("tools.adapter_fallback", "err", err)
		adapter = compat.NewAdapter()
	}

	analyzer, err := analyze.New(opts.Store, analyze.Options{Adapter: adapter})
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	srv := &Server{
		store:    opts.Store,
		cfg:      cfg,
		manager:  manager,
		analyzer: analyzer,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "source-scope",
				Title:   "SourceScope",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. analyze_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "analyze_file",
		Description: "Analyze a single source file (Go, JavaScript, TypeScript, Python, or SQL), persist its elements, and return the extracted records. SQL files are run through the platform compatibility adapter.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path, absolute or relative to the working directory."
				}
			},
			"required": ["path"]
		}`),
	}, s.handleAnalyzeFile)

	// 2. analyze_directory
	s.mcp.AddTool(&mcp.Tool{
		Name:        "analyze_directory",
		Description: "Recursively analyze every supported source file under a directory and persist the results. Skips vendor/build directories and respects .scopeignore. Returns file, element, cache, and failure counts.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Directory to analyze."
				}
			},
			"required": ["path"]
		}`),
	}, s.handleAnalyzeDirectory)

	// 3. list_elements
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_elements",
		Description: "Query previously analyzed code elements. Filter by kind (function, class, table, view, trigger, ...), exact name, or file path prefix.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"kind": {
					"type": "string",
					"description": "Element kind filter."
				},
				"name": {
					"type": "string",
					"description": "Exact element name filter."
				},
				"path": {
					"type": "string",
					"description": "File path prefix filter."
				},
				"limit": {
					"type": "number",
					"description": "Maximum rows to return (default 50, max 200)."
				}
			}
		}`),
	}, s.handleListElements)

	// 4. platform_info
	s.mcp.AddTool(&mcp.Tool{
		Name:        "platform_info",
		Description: "Report the detected platform (OS, runtime version, platform key), the recorded behavior profile for it, profile cache statistics, and the fixture catalogue version.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}, s.handlePlatformInfo)

	// 5. record_profile
	s.mcp.AddTool(&mcp.Tool{
		Name:        "record_profile",
		Description: "Record this platform's SQL parsing behavior profile by running the fixture catalogue through the extractor. Skips recording when a profile already exists unless force is set.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"base_dir": {
					"type": "string",
					"description": "Profile base directory. Defaults to the configured profiles directory."
				},
				"force": {
					"type": "boolean",
					"description": "Re-record even if a profile already exists."
				}
			}
		}`),
	}, s.handleRecordProfile)

	// 6. compatibility_report
	s.mcp.AddTool(&mcp.Tool{
		Name:        "compatibility_report",
		Description: "Render the SQL compatibility matrix across all recorded platform profiles as markdown.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"base_dir": {
					"type": "string",
					"description": "Profile base directory. Defaults to the configured profiles directory."
				}
			}
		}`),
	}, s.handleCompatibilityReport)

	// 7. adapt_sql
	s.mcp.AddTool(&mcp.Tool{
		Name:        "adapt_sql",
		Description: "Extract SQL elements from inline source through the platform compatibility adapter and return them. Set raw to true to see the unadapted extraction for comparison.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"source": {
					"type": "string",
					"description": "SQL source text."
				},
				"raw": {
					"type": "boolean",
					"description": "Skip the compatibility adapter."
				}
			},
			"required": ["source"]
		}`),
	}, s.handleAdaptSQL)

	// 8. list_fixtures
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_fixtures",
		Description: "List the SQL fixture catalogue used for behavior recording: ids, constructs, and edge-case flags.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}, s.handleListFixtures)

	// 9. read_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "read_file",
		Description: "Read a source file with line numbers, optionally restricted to a line range.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path, absolute or relative to the working directory."
				},
				"start_line": {
					"type": "number",
					"description": "First line to read (1-based)."
				},
				"end_line": {
					"type": "number",
					"description": "Last line to read (inclusive)."
				}
			},
			"required": ["path"]
		}`),
	}, s.handleReadFile)

	// 10. list_directory
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_directory",
		Description: "List directory contents, optionally filtered by a glob pattern.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Directory path."
				},
				"pattern": {
					"type": "string",
					"description": "Glob pattern within the directory, e.g. *.sql."
				}
			},
			"required": ["path"]
		}`),
	}, s.handleListDirectory)

	// 11. search_code
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_code",
		Description: "Search previously analyzed files for a text pattern or regex. Returns matching lines with file path and line number.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"pattern": {
					"type": "string",
					"description": "Substring to find, or a regular expression when regex is true."
				},
				"regex": {
					"type": "boolean",
					"description": "Treat pattern as a regular expression."
				},
				"language": {
					"type": "string",
					"description": "Restrict to one language (go, javascript, typescript, python, sql)."
				},
				"max_results": {
					"type": "number",
					"description": "Maximum matches to return (default 50, max 200)."
				}
			},
			"required": ["pattern"]
		}`),
	}, s.handleSearchCode)
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("marshal result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	args := map[string]any{}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	return args, nil
}

func getStringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getIntArg(args map[string]any, key string, def int) int {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func getBoolArg(args map[string]any, key string) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
