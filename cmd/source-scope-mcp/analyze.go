package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/SourceScope/source-scope-mcp/internal/analyze"
	"github.com/SourceScope/source-scope-mcp/internal/compat"
	"github.com/SourceScope/source-scope-mcp/internal/config"
	"github.com/SourceScope/source-scope-mcp/internal/store"
)

func runAnalyze(args []string) int {
	var target string
	asJSON := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			asJSON = true
		case "--help", "-h":
			fmt.Println("usage: source-scope-mcp analyze <path> [--json]")
			return 0
		default:
			if target != "" {
				fmt.Fprintln(os.Stderr, "analyze takes a single path")
				return 2
			}
			target = args[i]
		}
	}
	if target == "" {
		fmt.Fprintln(os.Stderr, "usage: source-scope-mcp analyze <path> [--json]")
		return 2
	}

	cfg := config.Load()
	setupLogging(cfg)

	an, st, err := openAnalyzer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer st.Close()

	ctx := context.Background()
	info, err := os.Stat(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if info.IsDir() {
		res, err := an.Directory(ctx, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
			return 1
		}
		if asJSON {
			printJSON(res)
		} else {
			fmt.Printf("%s: %d files, %d elements (%d cached, %d failed)\n",
				res.Root, res.Files, res.Elements, res.Cached, res.Failed)
		}
		if res.Failed > 0 {
			return 1
		}
		return 0
	}

	res, err := an.File(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		return 1
	}
	if asJSON {
		printJSON(res)
		return 0
	}
	fmt.Printf("%s (%s)\n", res.Path, res.Language)
	for _, r := range res.Records {
		fmt.Printf("  %-10s %-32s L%d-%d\n", r.Kind, r.Name, r.StartLine, r.EndLine)
	}
	if res.HasError {
		fmt.Println("  (source contained parse errors)")
	}
	return 0
}

// openAnalyzer wires the store and the platform-adapted analyzer.
func openAnalyzer(cfg *config.Config) (*analyze.Analyzer, *store.Store, error) {
	st, err := store.Open(cfg.EffectiveDataDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	cache := compat.NewCache(cfg.EffectiveCacheSize(), cfg.EffectiveCacheTTL())
	manager := compat.NewManager(cfg.EffectiveProfilesDir(), cache)
	adapter, err := manager.AdapterFor()
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("platform adapter: %w", err)
	}

	an, err := analyze.New(st, analyze.Options{Adapter: adapter})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return an, st, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
	}
}
