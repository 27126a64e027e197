package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/SourceScope/source-scope-mcp/internal/config"
	"github.com/SourceScope/source-scope-mcp/internal/store"
	"github.com/SourceScope/source-scope-mcp/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Println("source-scope-mcp", version)
			os.Exit(0)
		case "analyze":
			os.Exit(runAnalyze(os.Args[2:]))
		case "record":
			os.Exit(runRecord(os.Args[2:]))
		case "report":
			os.Exit(runReport(os.Args[2:]))
		case "watch":
			os.Exit(runWatch(os.Args[2:]))
		case "update":
			os.Exit(runUpdate(os.Args[2:]))
		case "--help", "-h", "help":
			printUsage()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	cfg := config.Load()
	setupLogging(cfg)

	st, err := store.Open(cfg.EffectiveDataDir())
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	srv, err := tools.NewServer(tools.Options{Store: st, Config: cfg, Version: version})
	if err != nil {
		st.Close()
		log.Fatalf("server init err=%v", err)
	}

	runErr := srv.MCPServer().Run(context.Background(), &mcp.StdioTransport{})
	st.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}

// setupLogging sends logs to stderr; stdout belongs to the MCP transport.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.EffectiveDiagnostics() || os.Getenv("SOURCE_SCOPE_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `source-scope-mcp %s

usage:
  source-scope-mcp                          run the MCP server over stdio
  source-scope-mcp analyze <path> [--json]  analyze a file or directory
  source-scope-mcp watch <path>             analyze, then re-analyze on change
  source-scope-mcp record [--base DIR] [--force]
  source-scope-mcp report [--base DIR] [--out FILE]
  source-scope-mcp update [--dry-run]
  source-scope-mcp --version
`, version)
}
